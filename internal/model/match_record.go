package model

import "time"

// TerminationReason names why a CombatState reached Terminal.
type TerminationReason string

const (
	ReasonKill     TerminationReason = "kill"
	ReasonExecute  TerminationReason = "execute"
	ReasonTurnCap  TerminationReason = "turn_cap"
	ReasonForfeit  TerminationReason = "forfeit"
)

// MatchRecord is an immutable, append-only record of a finished combat.
// Characters referenced by it may later be deleted; the record persists
// regardless (I5).
type MatchRecord struct {
	MatchID      string
	CombatID     string
	ParticipantA string
	ParticipantB string
	WinnerID     string
	RatingDeltaA int32
	RatingDeltaB int32
	DurationTurns int32
	Reason       TerminationReason
	CreatedAt    time.Time
}

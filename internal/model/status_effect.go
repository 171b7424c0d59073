package model

// StatusEffectKind enumerates the kinds of status effect a Participant
// can carry. StatusNone is the zero value for "induces nothing".
type StatusEffectKind int32

const (
	StatusNone StatusEffectKind = iota
	StatusPoison
	StatusBleed
	StatusStun
	StatusSlow
	StatusInvisible
	StatusShield
	StatusRoot
	StatusRegen
)

// Disables reports whether this status blocks the carrier's actions
// outright. Slow permits acting but not using abilities; that rule is
// enforced by the combat package, not here.
func (k StatusEffectKind) Disables() bool {
	return k == StatusStun || k == StatusRoot
}

// StatusEffect is attached to exactly one Participant. Duration
// decrements by one at the end of the carrier's next turn and the
// effect is removed once it reaches zero, or earlier if cleansed.
type StatusEffect struct {
	Kind              StatusEffectKind
	RemainingDuration int32
	Magnitude         float64
	SourceParticipant string
}

// Expired reports whether the effect should be removed.
func (s StatusEffect) Expired() bool {
	return s.RemainingDuration <= 0
}

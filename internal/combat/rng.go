package combat

import (
	"hash/fnv"
	"math/rand"
	"strconv"
)

// SeedFor derives a combat's RNG seed from its id and the server epoch
// (the process start time's Unix seconds, passed in by the caller),
// matching spec §4.5's hash(combat_id || server_epoch) and storing the
// result on CombatState.Seed so a replay from the same seed and action
// sequence is byte-identical.
func SeedFor(combatID string, serverEpoch int64) uint64 {
	h := fnv.New64a()
	h.Write([]byte(combatID))
	h.Write([]byte(strconv.FormatInt(serverEpoch, 10)))
	return h.Sum64()
}

// turnRNG returns a *rand.Rand whose stream depends only on the
// combat's seed and the current turn number, not on which process or
// goroutine is resolving the action. Unlike the teacher's combat/damage.go,
// which draws from the math/rand/v2 package-level generator, every roll
// here comes from this explicit, reconstructible source — combat state
// is reloaded fresh on every SubmitAction call, so the generator cannot
// be kept alive in memory between requests and must be deterministically
// re-derivable from persisted state alone.
func turnRNG(seed uint64, turn int32) *rand.Rand {
	mixed := seed ^ (uint64(turn) * 0x9E3779B97F4A7C15)
	return rand.New(rand.NewSource(int64(mixed)))
}

package matchmaking

import "math"

// minRating is the floor spec §4.7 pins so a long losing streak never
// drives a character's rating to zero or negative.
const minRating int32 = 100

// expectedScore is the standard Elo expectation for A against B.
func expectedScore(ratingA, ratingB int32) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// EloUpdate computes both post-match ratings given the pre-match
// ratings, the K-factor, and which side won. Clamped to minRating so
// neither side can fall below the floor.
func EloUpdate(ratingA, ratingB int32, aWon bool, k int) (newA, newB int32) {
	ea := expectedScore(ratingA, ratingB)
	eb := 1 - ea

	var sa, sb float64
	if aWon {
		sa, sb = 1, 0
	} else {
		sa, sb = 0, 1
	}

	newA = clampRating(ratingA, float64(k)*(sa-ea))
	newB = clampRating(ratingB, float64(k)*(sb-eb))
	return
}

func clampRating(base int32, delta float64) int32 {
	next := int32(math.Round(float64(base) + delta))
	if next < minRating {
		return minRating
	}
	return next
}

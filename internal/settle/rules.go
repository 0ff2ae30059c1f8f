package settle

import "footypool/ingestion/internal/models"

// Points computes the award one prediction earns against a final score under
// a group's scoring rule. A wrong outcome earns nothing. A correct outcome
// earns the group's base points, plus the goal difference bonus when the
// margin matches, plus the exact score bonus when the full score matches.
// An exact score always matches the margin too, so both bonuses stack on it.
func Points(group *models.PoolGroup, predictedHome, predictedAway, finalHome, finalAway int) int {
	if sign(predictedHome-predictedAway) != sign(finalHome-finalAway) {
		return 0
	}

	points := group.OutcomePoints
	if predictedHome-predictedAway == finalHome-finalAway {
		points += group.GoalDiffBonus
	}
	if predictedHome == finalHome && predictedAway == finalAway {
		points += group.ExactScoreBonus
	}

	return points
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

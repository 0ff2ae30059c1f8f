package settle

import (
	"testing"

	"footypool/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPoints(t *testing.T) {
	group := &models.PoolGroup{
		OutcomePoints:   3,
		ExactScoreBonus: 2,
		GoalDiffBonus:   1,
	}

	tests := []struct {
		name                 string
		predHome, predAway   int
		finalHome, finalAway int
		want                 int
	}{
		{"wrong outcome", 2, 0, 0, 1, 0},
		{"wrong outcome predicted draw", 1, 1, 2, 0, 0},
		{"correct outcome only", 3, 1, 1, 0, 3},
		{"correct outcome and margin", 3, 2, 1, 0, 4},
		{"exact score", 2, 1, 2, 1, 6},
		{"exact draw", 1, 1, 1, 1, 6},
		{"correct draw wrong score", 0, 0, 2, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Points(group, tt.predHome, tt.predAway, tt.finalHome, tt.finalAway)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPointsZeroRule(t *testing.T) {
	group := &models.PoolGroup{}

	assert.Equal(t, 0, Points(group, 2, 1, 2, 1))
}

func TestPointsDeterministic(t *testing.T) {
	group := &models.PoolGroup{OutcomePoints: 5, ExactScoreBonus: 3, GoalDiffBonus: 2}

	first := Points(group, 2, 1, 3, 2)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Points(group, 2, 1, 3, 2))
	}
}

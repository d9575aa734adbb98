package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanBatches(t *testing.T) {
	tests := []struct {
		name       string
		topics     int
		complexity float64
		want       BatchPlan
	}{
		{"zero topics", 0, 5.0, BatchPlan{}},
		{"negative topics", -3, 5.0, BatchPlan{}},
		{"single batch low complexity", 4, 2.0, BatchPlan{4}},
		{"single batch high complexity", 2, 9.0, BatchPlan{2}},
		{"greedy fill", 9, 5.0, BatchPlan{3, 3, 3}},
		{"seven topics complexity eight", 7, 8.0, BatchPlan{2, 2, 2, 1}},
		{"tail split instead of tiny remainder", 10, 2.0, BatchPlan{4, 3, 3}},
		{"remainder exactly base", 6, 5.0, BatchPlan{3, 3}},
		{"boundary complexity four", 6, 4.0, BatchPlan{3, 3}},
		{"boundary complexity seven", 6, 7.0, BatchPlan{2, 2, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanBatches(tt.topics, tt.complexity)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanBatchesCoversAllTopics(t *testing.T) {
	for topics := 1; topics <= 40; topics++ {
		for _, complexity := range []float64{0, 3.9, 4, 6.9, 7, 10} {
			plan := PlanBatches(topics, complexity)
			assert.Equal(t, topics, plan.Total(),
				"topics=%d complexity=%v plan=%v", topics, complexity, plan)
			for _, size := range plan {
				assert.GreaterOrEqual(t, size, 1,
					"topics=%d complexity=%v plan=%v", topics, complexity, plan)
			}
		}
	}
}

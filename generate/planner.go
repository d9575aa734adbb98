// Package generate implements the multi-pass generation pipeline: batch
// planning, context threading across stateless calls, and consistency
// normalization of concatenated output.
package generate

// BatchPlan holds the per-pass topic counts for one generation run.
type BatchPlan []int

// Total returns the number of topics covered by the plan.
func (p BatchPlan) Total() int {
	sum := 0
	for _, n := range p {
		sum += n
	}
	return sum
}

// PlanBatches splits topicCount topics into size-bounded passes. Higher
// complexity means more output per topic, so batches shrink as complexity
// grows: <4 gives batches of 4, [4,7) gives 3, >=7 gives 2. When the tail
// would leave a batch smaller than half the base size, the last chunk is
// split into two near-equal batches instead.
func PlanBatches(topicCount int, complexity float64) BatchPlan {
	if topicCount <= 0 {
		return BatchPlan{}
	}

	base := baseBatchSize(complexity)
	if topicCount <= base {
		return BatchPlan{topicCount}
	}

	var plan BatchPlan
	remaining := topicCount
	for remaining > base {
		if float64(remaining) <= 1.5*float64(base) {
			first := (remaining + 1) / 2
			return append(plan, first, remaining-first)
		}
		plan = append(plan, base)
		remaining -= base
	}
	return append(plan, remaining)
}

func baseBatchSize(complexity float64) int {
	switch {
	case complexity < 4:
		return 4
	case complexity < 7:
		return 3
	default:
		return 2
	}
}

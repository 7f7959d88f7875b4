package ranking

import "github.com/phrazzld/leadwire-api/internal/domain"

// WeightDelta is a signed change to apply to one feature weight.
type WeightDelta struct {
	Feature domain.Feature
	Delta   float64
}

// DecisionLearner turns a user's decision on an item into weight updates.
// Implementations must be deterministic; the caller applies the returned
// deltas through the preference store's upsert.
type DecisionLearner interface {
	DeriveWeightUpdates(outcome domain.DecisionOutcome, item Item) []WeightDelta
}

// FixedStepLearner nudges every category of the item by a fixed step:
// up when accepted, down when dismissed.
type FixedStepLearner struct {
	Step float64
}

// NewFixedStepLearner returns a learner using step, or
// DefaultLearningStepSize when step is not positive.
func NewFixedStepLearner(step float64) *FixedStepLearner {
	if step <= 0 {
		step = DefaultLearningStepSize
	}
	return &FixedStepLearner{Step: step}
}

// DeriveWeightUpdates implements DecisionLearner.
func (l *FixedStepLearner) DeriveWeightUpdates(outcome domain.DecisionOutcome, item Item) []WeightDelta {
	var sign float64
	switch outcome {
	case domain.DecisionAccepted:
		sign = 1
	case domain.DecisionDismissed:
		sign = -1
	default:
		return nil
	}

	var deltas []WeightDelta
	seen := make(map[string]struct{})
	for _, category := range itemCategories(item) {
		feature, err := domain.NormalizeFeature(domain.FeatureTypeCategory, category)
		if err != nil {
			continue
		}
		if _, dup := seen[feature.Key]; dup {
			continue
		}
		seen[feature.Key] = struct{}{}
		deltas = append(deltas, WeightDelta{Feature: feature, Delta: sign * l.Step})
	}
	return deltas
}

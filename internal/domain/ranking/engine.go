package ranking

import (
	"math"
	"sort"

	"github.com/phrazzld/leadwire-api/internal/domain"
)

// scoreItems computes a ScoredItem for each item, in input order.
//
// The function is pure: it reads items and weights without modifying them
// and the same inputs always yield the same output.
func scoreItems(items []Item, weights []WeightInput, params *Params) []ScoredItem {
	lookup := buildLookup(weights)

	scored := make([]ScoredItem, len(items))
	for i, item := range items {
		scored[i] = scoreItem(item, lookup, params)
	}
	return scored
}

// buildLookup maps normalized feature keys to weights for all active
// entries. A key muted anywhere in the table is excluded entirely, so a
// muted feature contributes nothing even if an active duplicate exists.
// Entries that fail normalization are ignored.
func buildLookup(weights []WeightInput) map[string]float64 {
	lookup := make(map[string]float64, len(weights))
	muted := make(map[string]struct{})

	for _, w := range weights {
		feature, err := w.feature()
		if err != nil {
			continue
		}
		if w.Muted {
			muted[feature.Key] = struct{}{}
			continue
		}
		lookup[feature.Key] = w.Weight
	}

	for key := range muted {
		delete(lookup, key)
	}
	return lookup
}

func (w WeightInput) feature() (domain.Feature, error) {
	if w.Key != "" {
		return domain.ParseFeatureKey(w.Key)
	}
	return domain.NormalizeFeature(w.KeyType, w.KeyValue)
}

// scoreItem applies the matched weights to one item.
//
// Algorithm:
//   - base score is the item's impact score, or params.DefaultBaseScore
//   - each distinct category is looked up as "category:<value>"
//   - matched weights are summed and scaled by params.Dampening
//   - the adjusted score is clamped to [MinScore, MaxScore]
//   - categories whose |weight| reaches params.ReasonThreshold become
//     reasons, in first-seen order, up to params.MaxReasons
func scoreItem(item Item, lookup map[string]float64, params *Params) ScoredItem {
	result := ScoredItem{
		Item:      item,
		BaseScore: baseScore(item, params),
		Reasons:   []string{},
	}

	var rawDelta float64
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

		weight, ok := lookup[feature.Key]
		if !ok {
			continue
		}
		rawDelta += weight

		if math.Abs(weight) >= params.ReasonThreshold && len(result.Reasons) < params.MaxReasons {
			result.Reasons = append(result.Reasons, category)
		}
	}

	result.PreferenceDelta = rawDelta * params.Dampening
	result.AdjustedScore = clamp(result.BaseScore+result.PreferenceDelta, params.MinScore, params.MaxScore)
	result.IsPersonalized = len(result.Reasons) > 0
	return result
}

func baseScore(item Item, params *Params) float64 {
	if item.Analysis == nil || item.Analysis.ImpactScore == nil {
		return params.DefaultBaseScore
	}
	score := *item.Analysis.ImpactScore
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return params.DefaultBaseScore
	}
	return score
}

func itemCategories(item Item) []string {
	if item.Analysis == nil {
		return nil
	}
	return domain.SplitCategories(item.Analysis.Categories)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Rank returns a copy of scored sorted by adjusted score, highest first.
// Ties keep their input order.
func Rank(scored []ScoredItem) []ScoredItem {
	ranked := make([]ScoredItem, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AdjustedScore > ranked[j].AdjustedScore
	})
	return ranked
}

package ranking

import "github.com/google/uuid"

// ItemAnalysis carries the analysis fields the engine reads.
type ItemAnalysis struct {
	// Categories is a comma-separated list, e.g. "AI, Security".
	Categories string
	// ImpactScore is the item's prior quality score; nil means unknown.
	ImpactScore *float64
}

// Item is the article-like input to scoring. A nil Analysis is valid and
// scores with defaults.
type Item struct {
	ID       uuid.UUID
	Analysis *ItemAnalysis
}

// WeightInput is one entry of a user's preference table. Either Key is set
// to a "type:value" key, or KeyType and KeyValue are given and normalized.
type WeightInput struct {
	Key      string
	KeyType  string
	KeyValue string
	Weight   float64
	Muted    bool
}

// ScoredItem is the per-item result of a scoring pass. It is derived data
// and is never persisted by this package.
type ScoredItem struct {
	Item            Item     `json:"-"`
	BaseScore       float64  `json:"base_score"`
	PreferenceDelta float64  `json:"preference_delta"`
	AdjustedScore   float64  `json:"adjusted_score"`
	Reasons         []string `json:"reasons"`
	IsPersonalized  bool     `json:"is_personalized"`
}

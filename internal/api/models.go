package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/phrazzld/leadwire-api/internal/service"
)

// ArticleInput is one article in an ingestion batch.
type ArticleInput struct {
	URL         string     `json:"url"          validate:"omitempty,http_url,max=2048"`
	Title       string     `json:"title"        validate:"required,max=500"`
	Content     string     `json:"content"      validate:"required"`
	PublishedAt *time.Time `json:"published_at"`
}

// IngestBatchRequest defines the payload for the batch ingestion endpoint.
type IngestBatchRequest struct {
	Articles []ArticleInput `json:"articles" validate:"required,min=1,max=100,dive"`
}

// ArticleResponse is the client view of an article. Content is omitted;
// clients already hold it.
type ArticleResponse struct {
	ID          uuid.UUID            `json:"id"`
	URL         string               `json:"url,omitempty"`
	Title       string               `json:"title"`
	Status      domain.ArticleStatus `json:"status"`
	PublishedAt *time.Time           `json:"published_at,omitempty"`
	Summary     string               `json:"summary,omitempty"`
	Categories  []string             `json:"categories"`
	ImpactScore *float64             `json:"impact_score,omitempty"`
	AnalyzedAt  *time.Time           `json:"analyzed_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// IngestBatchResponse summarizes an ingestion batch.
type IngestBatchResponse struct {
	Total      int                   `json:"total"`
	Analyzed   int                   `json:"analyzed"`
	Duplicates int                   `json:"duplicates"`
	Failed     int                   `json:"failed"`
	Articles   []ArticleResponse     `json:"articles"`
	Errors     []service.IngestError `json:"errors"`
}

// DecisionRequest defines the payload for recording a decision on an article.
type DecisionRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=accepted dismissed"`
}

// DecisionResponse echoes a recorded decision.
type DecisionResponse struct {
	ArticleID uuid.UUID `json:"article_id"`
	Outcome   string    `json:"outcome"`
	DecidedAt time.Time `json:"decided_at"`
}

// FeedItemResponse is one ranked article with the explanation of its score.
type FeedItemResponse struct {
	Article         ArticleResponse `json:"article"`
	BaseScore       float64         `json:"base_score"`
	PreferenceDelta float64         `json:"preference_delta"`
	AdjustedScore   float64         `json:"adjusted_score"`
	Reasons         []string        `json:"reasons"`
	IsPersonalized  bool            `json:"is_personalized"`
}

// FeedResponse is the ranked feed.
type FeedResponse struct {
	Items []FeedItemResponse `json:"items"`
}

// FeatureRequest names a feature. Type defaults to "category".
type FeatureRequest struct {
	Type  string `json:"type"  validate:"omitempty,max=50"`
	Value string `json:"value" validate:"required,max=200"`
}

func (f FeatureRequest) featureType() string {
	if f.Type == "" {
		return domain.FeatureTypeCategory
	}
	return f.Type
}

// AdjustWeightRequest defines the payload for nudging a weight.
type AdjustWeightRequest struct {
	FeatureRequest
	Delta float64 `json:"delta" validate:"gte=-100,lte=100"`
}

// SetWeightRequest defines the payload for overwriting a weight.
type SetWeightRequest struct {
	FeatureRequest
	Weight float64 `json:"weight" validate:"gte=-1000,lte=1000"`
}

// MuteRequest defines the payload for muting or unmuting a feature.
type MuteRequest struct {
	FeatureRequest
	Muted *bool `json:"muted" validate:"required"`
}

// ResetRequest defines the payload for resetting a feature.
type ResetRequest struct {
	FeatureRequest
}

// WeightResponse is the client view of a feature weight.
type WeightResponse struct {
	Key       string    `json:"key"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	Weight    float64   `json:"weight"`
	Muted     bool      `json:"muted"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WeightListResponse lists a user's weights.
type WeightListResponse struct {
	Weights []WeightResponse `json:"weights"`
}

func toArticleResponse(a *domain.Article) ArticleResponse {
	resp := ArticleResponse{
		ID:          a.ID,
		URL:         a.URL,
		Title:       a.Title,
		Status:      a.Status,
		PublishedAt: a.PublishedAt,
		Categories:  []string{},
		CreatedAt:   a.CreatedAt,
	}
	if a.Analysis != nil {
		analyzedAt := a.Analysis.AnalyzedAt
		resp.Summary = a.Analysis.Summary
		resp.Categories = a.Analysis.CategoryList()
		resp.ImpactScore = a.Analysis.ImpactScore
		resp.AnalyzedAt = &analyzedAt
	}
	return resp
}

func toIngestBatchResponse(report *service.IngestReport) IngestBatchResponse {
	resp := IngestBatchResponse{
		Total:      report.Total,
		Analyzed:   report.Analyzed,
		Duplicates: report.Duplicates,
		Failed:     report.Failed,
		Articles:   make([]ArticleResponse, 0, len(report.Articles)),
		Errors:     report.Errors,
	}
	if resp.Errors == nil {
		resp.Errors = []service.IngestError{}
	}
	for _, a := range report.Articles {
		resp.Articles = append(resp.Articles, toArticleResponse(a))
	}
	return resp
}

func toFeedResponse(entries []service.FeedEntry) FeedResponse {
	resp := FeedResponse{Items: make([]FeedItemResponse, 0, len(entries))}
	for _, e := range entries {
		reasons := e.Score.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		resp.Items = append(resp.Items, FeedItemResponse{
			Article:         toArticleResponse(e.Article),
			BaseScore:       e.Score.BaseScore,
			PreferenceDelta: e.Score.PreferenceDelta,
			AdjustedScore:   e.Score.AdjustedScore,
			Reasons:         reasons,
			IsPersonalized:  e.Score.IsPersonalized,
		})
	}
	return resp
}

func toWeightResponse(w *domain.FeatureWeight) WeightResponse {
	return WeightResponse{
		Key:       w.Key,
		Type:      w.Type,
		Value:     w.Value,
		Weight:    w.Weight,
		Muted:     w.Muted,
		UpdatedAt: w.UpdatedAt,
	}
}

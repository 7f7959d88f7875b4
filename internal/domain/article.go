package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArticleStatus represents the analysis state of an article
type ArticleStatus string

// Possible article status values
const (
	ArticleStatusPending  ArticleStatus = "pending"
	ArticleStatusAnalyzed ArticleStatus = "analyzed"
	ArticleStatusFailed   ArticleStatus = "failed"
)

// Validation limits for ingested articles
const (
	MaxTitleLength   = 500
	MaxContentLength = 200_000
)

// Common validation errors for Article
var (
	ErrEmptyArticleID     = errors.New("article ID cannot be empty")
	ErrEmptyArticleUserID = errors.New("article user ID cannot be empty")
	ErrEmptyArticleTitle  = errors.New("article title cannot be empty")
	ErrInvalidArticleURL  = errors.New("article URL must be absolute http(s)")
	ErrArticleTooLarge    = errors.New("article exceeds size limits")
)

// Analysis is the LLM-derived assessment of an article.
type Analysis struct {
	Summary string `json:"summary"`
	// Categories is a comma-separated list, e.g. "AI, Security".
	Categories string `json:"categories"`
	// ImpactScore is nil when the model did not provide one.
	ImpactScore *float64  `json:"impact_score,omitempty"`
	AnalyzedAt  time.Time `json:"analyzed_at"`
}

// CategoryList returns the analysis categories as SplitCategories does.
func (a *Analysis) CategoryList() []string {
	if a == nil {
		return nil
	}
	return SplitCategories(a.Categories)
}

// SplitCategories splits a comma-separated category list, trimming each
// entry and dropping blanks. Original casing is kept.
func SplitCategories(categories string) []string {
	if categories == "" {
		return nil
	}
	parts := strings.Split(categories, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Article is a news item or lead submitted for analysis.
type Article struct {
	ID          uuid.UUID     `json:"id"`
	UserID      uuid.UUID     `json:"user_id"`
	URL         string        `json:"url,omitempty"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	ContentHash string        `json:"content_hash"`
	Status      ArticleStatus `json:"status"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
	Analysis    *Analysis     `json:"analysis,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewArticle creates a pending Article for the given user.
// Returns an error if validation fails.
func NewArticle(
	userID uuid.UUID,
	rawURL, title, content string,
	publishedAt *time.Time,
) (*Article, error) {
	now := time.Now().UTC()
	title = strings.TrimSpace(title)
	article := &Article{
		ID:          uuid.New(),
		UserID:      userID,
		URL:         strings.TrimSpace(rawURL),
		Title:       title,
		Content:     content,
		ContentHash: ContentHash(title, content),
		Status:      ArticleStatusPending,
		PublishedAt: publishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := article.Validate(); err != nil {
		return nil, err
	}
	return article, nil
}

// Validate checks if the article has valid data.
func (a *Article) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyArticleID
	}
	if a.UserID == uuid.Nil {
		return ErrEmptyArticleUserID
	}
	if a.Title == "" {
		return ErrEmptyArticleTitle
	}
	if strings.TrimSpace(a.Content) == "" {
		return ErrEmptyContent
	}
	if len(a.Title) > MaxTitleLength || len(a.Content) > MaxContentLength {
		return ErrArticleTooLarge
	}
	if a.URL != "" {
		u, err := url.Parse(a.URL)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
			return ErrInvalidArticleURL
		}
	}
	if !a.Status.IsValid() {
		return ErrInvalidArticleStatus
	}
	return nil
}

// IsValid reports whether s is a known status.
func (s ArticleStatus) IsValid() bool {
	switch s {
	case ArticleStatusPending, ArticleStatusAnalyzed, ArticleStatusFailed:
		return true
	}
	return false
}

// ApplyAnalysis records a completed analysis on the article.
func (a *Article) ApplyAnalysis(analysis *Analysis) {
	a.Analysis = analysis
	a.Status = ArticleStatusAnalyzed
	a.UpdatedAt = time.Now().UTC()
}

// ContentHash returns a stable fingerprint of an article's text. Case and
// whitespace differences do not change the hash, so re-posted copies of the
// same story collapse to one value.
func ContentHash(title, content string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(title+" "+content), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// MarkFailed records that analysis could not be completed.
func (a *Article) MarkFailed() {
	a.Status = ArticleStatusFailed
	a.UpdatedAt = time.Now().UTC()
}

package generation

import (
	"context"

	"github.com/phrazzld/leadwire-api/internal/domain"
)

// Analyzer produces an Analysis for one article.
//
// Implementations must be safe for concurrent use; callers run many
// analyses at once under a dispatcher. Errors wrap the sentinels in
// errors.go so callers can tell blocked content from outages.
type Analyzer interface {
	Analyze(ctx context.Context, article *domain.Article) (*domain.Analysis, error)
}

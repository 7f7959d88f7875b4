package ranking

import "errors"

// ErrNilItems is returned when Score is called without an item slice.
var ErrNilItems = errors.New("items cannot be nil")

// Service defines the interface for preference scoring operations
type Service interface {
	// Score computes a ScoredItem for every item, preserving input order and
	// length. Items missing analysis data degrade to defaults rather than
	// failing the batch.
	Score(items []Item, weights []WeightInput) ([]ScoredItem, error)

	// Params returns the parameters the service scores with.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scoring service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scoring service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// Score implements the Service interface
func (s *defaultService) Score(items []Item, weights []WeightInput) ([]ScoredItem, error) {
	if items == nil {
		return nil, ErrNilItems
	}
	return scoreItems(items, weights, s.params), nil
}

// Params implements the Service interface
func (s *defaultService) Params() Params {
	return *s.params
}

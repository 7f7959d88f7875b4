package gemini

import "errors"

// ErrEmptyArticle is returned when an article has no text to analyze.
var ErrEmptyArticle = errors.New("article has no content to analyze")

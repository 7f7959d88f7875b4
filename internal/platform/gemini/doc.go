// Package gemini implements generation.Analyzer on top of Google's Gemini
// API.
//
// Each analysis renders a prompt template with the article, asks the model
// for a JSON document (summary, categories, impact score) and maps it into a
// domain.Analysis. Transient API failures are retried with exponential
// backoff and jitter. A circuit breaker sits in front of the API so a
// failing model is not hammered by every queued article.
package gemini

// Package api handles incoming HTTP requests for the ranked feed: article
// ingestion, decisions, feed retrieval and preference management. Handlers
// validate requests, call the application services and translate their
// errors into sanitized HTTP responses.
package api

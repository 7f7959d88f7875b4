// Package service contains the application use cases of leadwire: batch
// ingestion with bounded-concurrency analysis, the ranked feed, and
// preference management with decision learning.
//
// Services receive their dependencies through constructor injection and
// depend only on store interfaces, the ranking engine and the task
// dispatcher, never on concrete infrastructure.
//
// Error handling:
//   - Expected conditions are returned as sentinel errors (ErrNotOwned,
//     ErrArticleNotFound, ...) checked with errors.Is
//   - Unexpected failures are wrapped in ServiceError naming the operation
//   - The API layer maps both to HTTP status codes
package service

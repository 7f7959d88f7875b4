// Package cache stores completed article analyses keyed by content hash so
// that re-submitted copies of the same story skip the language model.
// Redis is used when configured and reachable; otherwise an in-process map
// with the same TTL semantics takes over.
package cache

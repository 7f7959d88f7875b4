// Package store defines the persistence contracts for articles and feature
// weights, the shared DBTX abstraction, store error sentinels and the
// transaction helper. Implementations live in internal/platform/postgres.
package store

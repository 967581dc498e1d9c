// Package stores provides the persistence layer for training runs.
// It includes SQLite-based storage with WAL mode, connection pooling,
// and CRUD operations for run records and their event logs.
package stores

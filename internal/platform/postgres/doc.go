// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces (repositories) defined in the internal/store package.
// It handles the details of query execution, error mapping, and data
// conversion between domain entities and database records.
package postgres

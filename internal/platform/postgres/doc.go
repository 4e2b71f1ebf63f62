// Package postgres provides PostgreSQL implementations of the store
// interfaces. It uses database/sql over the pgx stdlib driver; schema changes
// live in the migrations subpackage and are applied with goose.
package postgres

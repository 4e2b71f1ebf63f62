// Package testdb provides a migrated PostgreSQL database for integration
// tests. When DATABASE_URL (or QUIZ_TEST_DB_URL) is set that database is
// used; otherwise a disposable postgres container is started with
// testcontainers. Tests using it are compiled only with the integration
// build tag.
package testdb

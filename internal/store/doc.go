// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic: import jobs and their chunk items, the
// question bank that receives imported records, and runtime settings.
// Implementations live in internal/platform/postgres and
// internal/platform/memory.
package store

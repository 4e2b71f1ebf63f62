// Package domain contains the core entities of the import pipeline: import
// jobs and their per-chunk items, and the question records extracted from
// submitted content. It is independent of storage and transport concerns.
package domain

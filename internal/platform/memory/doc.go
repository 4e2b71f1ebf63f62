// Package memory provides in-process implementations of the store
// interfaces. They are safe for concurrent use and back local runs
// (database.driver=memory) and the pipeline tests.
package memory

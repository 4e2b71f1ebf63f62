// Package service contains the application use cases. ImportService accepts
// question-bank imports, hands them to the background task runner and
// reports job progress; it depends on the store interfaces and never on a
// concrete storage driver.
package service

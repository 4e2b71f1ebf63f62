// Package ingest implements the asynchronous question import pipeline.
//
// A Scheduler splits submitted content into chunks, fans them out to a
// Processor in bounded waves, records each chunk's outcome on the job and
// finalises the job. The Processor turns one chunk into question records by
// calling a completion service, with bounded retries and linear backoff. The
// Janitor reclaims stuck jobs and removes old finished ones.
package ingest

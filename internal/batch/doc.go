// Package batch runs multiple scenarios concurrently with a bounded
// degree of parallelism. Each scenario gets its own session and run
// report; results come back in the same order the scenarios were given.
package batch

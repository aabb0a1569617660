// Package pipeline provides the execution engine for webpilot automation
// pipelines. A pipeline is an ordered list of steps; each step resolves its
// configuration (possibly from the previous step's result), executes, and
// hands its result forward through a shared Session.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. Steps can be composed declaratively (e.g., from a scenario file)
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running automations
// 4. A step can splice a dynamically created step into the run (Continue)
//
// The engine guarantees strictly sequential execution within one run: step
// N+1 never begins before step N has fully completed, including any steps
// that N produced dynamically. Failures abort the remainder of the pipeline
// and surface as a single error annotated with the failing step's name.
// Multiple runs may proceed concurrently as long as they do not share a
// Session; see the batch package for concurrent scenario execution.
package pipeline

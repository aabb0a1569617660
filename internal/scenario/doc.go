// Package scenario loads declarative webpilot scenario files and turns them
// into executable pipelines. A scenario is a YAML document naming an ordered
// list of steps (request, parse, follow_link, submit_form, extract,
// assertions); Build converts the specs into pipeline.Step values wired with
// the runtime configuration.
package scenario

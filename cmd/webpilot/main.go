// Package main provides the entry point for the webpilot CLI.
//
// webpilot executes declarative web automation scenarios: it requests pages,
// follows links, submits forms, and asserts on the results, carrying cookies
// across steps like a browser session would.
//
// Usage:
//
//	webpilot run <scenario-file>
//	webpilot run scenario1.yml scenario2.yml
//
// See --help for all available options.
package main

// main is the entry point for webpilot.
func main() {
	Execute()
}

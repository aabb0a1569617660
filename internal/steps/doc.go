// Package steps provides the concrete step implementations that webpilot
// pipelines are built from: issuing HTTP requests through the session's
// cookie-carrying client, parsing responses into traversable documents,
// following links, submitting forms, asserting on page state, and extracting
// values for later steps.
//
// The navigation steps (FollowLink, SubmitForm) do not perform requests
// themselves; they select a target from the previous document and splice a
// fully configured Request step into the run, so every HTTP exchange goes
// through one code path.
package steps

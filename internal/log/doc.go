// Package log provides secure logging functionality with automatic
// sanitization of sensitive information, built on top of the standard slog
// package.
//
// webpilot drives authenticated websites: sessions carry login cookies, and
// pipelines submit forms containing passwords and CSRF tokens. Step results
// and request configurations routinely pass through log statements, so the
// SecureHandler masks sensitive values before they reach the log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Form field values detected by name (passwords, tokens, CSRF secrets)
//   - Secret-looking values detected by pattern (JWTs, bearer tokens)
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of credentials in logs that may be shared or stored.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("submitting form",
//	    "password", "hunter2",           // Will be masked to "***"
//	    "url", "http://example.test",
//	)
//
//	slog.SetDefault(logger)
package log

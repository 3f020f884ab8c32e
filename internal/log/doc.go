// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// Image URLs copied out of saved article pages often carry session material
// in their query strings (tickets, signatures, user identifiers). Those URLs
// show up in resource diagnostics, fetch errors and placeholder reasons, so
// the handler rewrites them before they reach the log.
//
// # Security Features
//
// The SecureHandler sanitizes:
//   - Attributes whose key names a credential (cookie, authorization, token, ...)
//   - Values that look like bearer or basic credentials
//   - Sensitive query parameters inside URLs, in string and error values
//
// Even in verbose mode, sensitive values are masked so that logs can be
// shared when reporting a broken page.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("resource fetch failed",
//	    "url", "https://img.example.com/a.png?token=abc", // token=***REDACTED***
//	)
//	slog.SetDefault(logger)
package log

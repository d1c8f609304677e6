// Package server exposes the review pipeline as a small JSON API built on
// echo.
//
// Endpoints:
//
//	POST /api/review  multipart "files" (plus optional model, mode, force); runs a review
//	POST /api/prompt  same form; returns the assembled prompt and validation only
//	GET  /api/models  the model catalogue and the configured default
//	GET  /healthz     liveness
//
// The OpenRouter key comes from an "Authorization: Bearer" header, falling
// back to the server's configured key. It is never logged or echoed back.
// Errors use a {code, message, details} envelope; provider failures map to
// 401, 429, 502 or 504 and an oversized prompt to 413.
package server

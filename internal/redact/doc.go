// Package redact removes secrets from file content before it leaves the
// machine.
//
// Detection is regex-based and covers common shapes: provider API keys
// (OpenRouter, OpenAI, Anthropic, GitHub, Slack, AWS), JWTs, bearer tokens,
// private key blocks and credential assignments. Files whose path matches a
// configured glob are replaced wholesale instead of scanned.
//
// Redaction is opt-in; lamp reviews code exactly as uploaded unless
// privacy.redactSecrets is enabled.
package redact

// Package providers is the chat-completion client used to submit review
// prompts.
//
// [OpenRouter] speaks the OpenAI-compatible /chat/completions wire format
// that OpenRouter and most self-hosted gateways expose. Every failure is
// returned as one of five typed errors ([AuthError], [QuotaError],
// [TransportError], [ProtocolError], [UnknownAPIError]) so that callers can
// branch with errors.As or [Kind]. Nothing is retried automatically;
// [Retryable] tells a caller whether offering a manual retry makes sense.
//
// The HTTP client is injectable so tests can point the client at an
// httptest server without making live API requests.
package providers

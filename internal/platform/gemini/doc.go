// Package gemini implements generation.Completer on top of Google's Gemini
// API. It is an infrastructure adapter: callers see only the Completer
// interface and the generation error taxonomy, never genai types.
//
// Upstream failures are translated as follows:
//   - genai.APIError becomes *generation.StatusError carrying the HTTP code
//   - a prompt block or SAFETY finish reason becomes generation.ErrContentBlocked
//   - a response without text becomes generation.ErrEmptyCompletion
package gemini

// Package generation defines the boundary between the import pipeline and
// external chat-completion services. It declares the Completer interface,
// the prompts sent to the model, and the error taxonomy that separates
// retryable upstream failures from permanent ones. Provider implementations
// live under internal/platform.
package generation

// Package openai implements generation.Completer for OpenAI-compatible chat
// completion endpoints through langchaingo. Setting llm.base_url points the
// completer at any compatible service, such as a self-hosted gateway.
package openai

// Package deepseek implements provider.Provider for the DeepSeek Chat
// Completions API. The endpoint is OpenAI-compatible, so this package
// also hosts the shared chat-completions error-envelope parsing reused
// by other adapters.
package deepseek

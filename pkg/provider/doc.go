// Package provider defines the adapter abstraction for external LLM
// backends and a registry that builds adapters from provider configs.
//
// Each adapter sub-package (gemini, deepseek, huggingface) encapsulates
// one backend's wire format: request payload shape, authentication,
// response text path, and error envelope. The rest of the system only
// sees the Provider interface and the normalized Generation type.
package provider

// Package huggingface implements provider.Provider for the Hugging Face
// Inference API (text-generation task).
package huggingface

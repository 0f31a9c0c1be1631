// Package api defines the public types of the arena comparison API:
// requests, response envelopes, provider configuration, completion
// records, and the structured error taxonomy shared by all layers.
package api

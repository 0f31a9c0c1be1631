// Package auth provides request authentication for the arena gateway.
//
// Authenticators vote with three outcomes (Yes/No/Abstain) and are
// evaluated as a chain, so session tokens, static API keys, and the
// development no-op authenticator compose without knowing about each
// other. The authenticated identity travels in the request context.
package auth

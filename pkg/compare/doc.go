// Package compare implements the fan-out comparison engine: it takes a
// validated prompt, dispatches it concurrently to every active provider
// adapter, waits for all of them to settle, and normalizes the outcomes
// into an ordered batch of response envelopes.
//
// Failure isolation is the central invariant: one adapter's error,
// timeout, or panic never cancels its siblings and never fails the
// request. A comparison where every provider failed is still a normal
// response.
package compare

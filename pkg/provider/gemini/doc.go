// Package gemini implements provider.Provider for the Google Generative
// Language API (generateContent).
package gemini

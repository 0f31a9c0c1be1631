package compare

import (
	"strings"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/provider"
)

// EmptyContentPlaceholder is shown when a provider succeeded but
// produced no usable text. This is a display condition, distinct from a
// provider failure.
const EmptyContentPlaceholder = "No response from this model"

// maxHighlights caps the number of highlight fragments per envelope.
const maxHighlights = 3

// Outcome is the terminal result of one adapter invocation: either a
// generation or an error, never both. Produced exactly once per adapter
// per request and immutable afterwards.
type Outcome struct {
	Model  string
	Vendor string
	Gen    *provider.Generation
	Err    error
}

// Normalize converts one adapter outcome into a display envelope.
// It is a pure function: the same inputs always produce the same
// envelope.
func Normalize(cfg api.ProviderConfig, out Outcome, scoring bool) api.ResponseEnvelope {
	env := api.ResponseEnvelope{
		ID:       cfg.ID,
		Model:    out.Model,
		Provider: out.Vendor,
	}
	if env.Model == "" {
		env.Model = cfg.DisplayName
	}
	if env.Provider == "" {
		env.Provider = string(cfg.Kind)
	}

	if out.Err != nil {
		env.Status = api.StatusError
		env.Content = ""
		env.Error = out.Err.Error()
		if scoring {
			zero := 0.0
			env.Score = &zero
		}
		return env
	}

	env.Status = api.StatusSuccess
	env.Content = out.Gen.Text
	if strings.TrimSpace(env.Content) == "" {
		env.Content = EmptyContentPlaceholder
	}
	env.Highlights = ExtractHighlights(env.Content)
	if scoring {
		score := cfg.Score
		env.Score = &score
	}
	if out.Gen.Usage != (api.Usage{}) {
		usage := out.Gen.Usage
		env.Usage = &usage
	}

	return env
}

// ExtractHighlights returns the first sentence-like fragments of text:
// split on sentence-terminal punctuation, trimmed, empty fragments
// dropped, and at most three kept in original order.
func ExtractHighlights(text string) []string {
	fragments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var highlights []string
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		highlights = append(highlights, f)
		if len(highlights) == maxHighlights {
			break
		}
	}
	return highlights
}

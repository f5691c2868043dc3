// Package llm summarizes repository READMEs, preferring a language-model
// backend and degrading to a deterministic local heuristic.
package llm

import (
	"context"
	"strings"
)

// ReadmeSummary is the outcome of a single-README summarization.
type ReadmeSummary struct {
	Summary string   `json:"summary"`
	Facts   []string `json:"facts"`
}

// UnifyInput bundles everything the unifying pass may draw on.
type UnifyInput struct {
	RepoName       string
	Description    string
	Language       string
	Stars          int
	Summary        string
	Facts          []string
	LatestRelease  string
	CommitSubjects []string
}

// Summarizer is the external-collaborator boundary consumed by the
// summary service. Implementations must return errors rather than
// panic; the caller substitutes the local fallback on error or timeout.
type Summarizer interface {
	Summarize(ctx context.Context, readme string) (*ReadmeSummary, error)
	Unify(ctx context.Context, input UnifyInput) (string, error)
}

// HasValidCredential reports whether the configured credential looks
// like an OpenAI secret key. Anything else routes to the fallback
// without ever attempting a network call.
func HasValidCredential(apiKey string) bool {
	trimmed := strings.TrimSpace(apiKey)
	return strings.HasPrefix(trimmed, "sk-") && len(trimmed) > 20
}

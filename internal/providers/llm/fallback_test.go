package llm

import (
	"strings"
	"testing"
)

func TestFallbackSummarizeExtractsLeadingSentences(t *testing.T) {
	readme := "# MyTool\n\nMyTool is a fast log parser. It supports JSON and plain text. " +
		"Run `go install` to get started. See the [docs](https://example.com) for more.\n\n" +
		"## Testing\nRun the test suite with make."

	s := FallbackSummarize(readme)

	if !strings.HasPrefix(s.Summary, "MyTool is a fast log parser.") {
		t.Fatalf("unexpected summary: %q", s.Summary)
	}
	if strings.Contains(s.Summary, "#") || strings.Contains(s.Summary, "](") {
		t.Fatalf("markdown leaked into summary: %q", s.Summary)
	}
}

func TestFallbackSummarizeFactsAreKeywordTriggered(t *testing.T) {
	s := FallbackSummarize("Install with docker. Licensed under MIT. Run tests with make test.")

	want := []string{
		"Includes installation instructions",
		"Provides Docker support",
		"Ships with tests",
		"States its license terms",
	}
	if len(s.Facts) != len(want) {
		t.Fatalf("expected %d facts, got %v", len(want), s.Facts)
	}
	for i, fact := range want {
		if s.Facts[i] != fact {
			t.Fatalf("fact %d: expected %q, got %q", i, fact, s.Facts[i])
		}
	}
}

func TestFallbackSummarizeIsDeterministic(t *testing.T) {
	readme := "A CLI for managing API tokens. Includes examples and installation notes."
	first := FallbackSummarize(readme)
	second := FallbackSummarize(readme)

	if first.Summary != second.Summary {
		t.Fatal("summary not deterministic")
	}
	if len(first.Facts) != len(second.Facts) {
		t.Fatal("facts not deterministic")
	}
}

func TestFallbackSummarizeEmptyReadme(t *testing.T) {
	s := FallbackSummarize("")
	if s.Summary == "" {
		t.Fatal("expected placeholder summary for empty readme")
	}
}

func TestFallbackUnifyAssemblesNarrative(t *testing.T) {
	out := FallbackUnify(UnifyInput{
		RepoName:      "octo/demo",
		Description:   "a demo repo",
		Language:      "Go",
		Stars:         42,
		Summary:       "Demo shows things.",
		Facts:         []string{"Ships with tests"},
		LatestRelease: "v1.2.3",
	})

	for _, want := range []string{"octo/demo", "a demo repo", "Go", "42", "Demo shows things.", "Ships with tests", "v1.2.3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in narrative %q", want, out)
		}
	}
}

func TestHasValidCredential(t *testing.T) {
	if HasValidCredential("") || HasValidCredential("not-a-key") || HasValidCredential("sk-short") {
		t.Fatal("expected invalid credentials rejected")
	}
	if !HasValidCredential("sk-abcdefghijklmnopqrstuvwxyz") {
		t.Fatal("expected well-formed key accepted")
	}
}

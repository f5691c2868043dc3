package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const (
	fallbackSummaryMaxLen   = 300
	fallbackSummarySentence = 3
)

// FallbackSummarizer is the deterministic local strategy. It never
// fails and never performs network calls.
type FallbackSummarizer struct{}

func NewFallback() *FallbackSummarizer {
	return &FallbackSummarizer{}
}

func (f *FallbackSummarizer) Summarize(_ context.Context, readme string) (*ReadmeSummary, error) {
	s := FallbackSummarize(readme)
	return &s, nil
}

func (f *FallbackSummarizer) Unify(_ context.Context, input UnifyInput) (string, error) {
	return FallbackUnify(input), nil
}

var (
	markdownHeading = regexp.MustCompile(`(?m)^#{1,6}[^\n]*\n?`)
	markdownLink    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	markdownCode    = regexp.MustCompile("(?s)```.*?```|`[^`]*`")
	markdownImage   = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// factTriggers maps README keywords to generic facts, checked in a fixed
// order so the output is deterministic.
var factTriggers = []struct {
	keyword string
	fact    string
}{
	{"install", "Includes installation instructions"},
	{"docker", "Provides Docker support"},
	{"api", "Exposes an API"},
	{"cli", "Offers a command-line interface"},
	{"test", "Ships with tests"},
	{"license", "States its license terms"},
	{"contribut", "Welcomes contributions"},
	{"example", "Documents usage examples"},
}

// FallbackSummarize extracts the leading sentences of the README as the
// summary and derives facts from keyword triggers.
func FallbackSummarize(readme string) ReadmeSummary {
	plain := markdownImage.ReplaceAllString(readme, "")
	plain = markdownCode.ReplaceAllString(plain, "")
	plain = markdownLink.ReplaceAllString(plain, "$1")
	plain = markdownHeading.ReplaceAllString(plain, "")
	plain = strings.TrimSpace(whitespaceRun.ReplaceAllString(plain, " "))

	summary := leadingSentences(plain, fallbackSummarySentence, fallbackSummaryMaxLen)
	if summary == "" {
		summary = "No README content available for this repository."
	}

	lower := strings.ToLower(readme)
	var facts []string
	for _, trigger := range factTriggers {
		if strings.Contains(lower, trigger.keyword) {
			facts = append(facts, trigger.fact)
		}
	}

	return ReadmeSummary{Summary: summary, Facts: facts}
}

// FallbackUnify assembles the final narrative from structured fields.
func FallbackUnify(input UnifyInput) string {
	var b strings.Builder

	name := strings.TrimSpace(input.RepoName)
	if name == "" {
		name = "This repository"
	}
	fmt.Fprintf(&b, "%s", name)
	if desc := strings.TrimSpace(input.Description); desc != "" {
		fmt.Fprintf(&b, ": %s", strings.TrimRight(desc, "."))
	}
	b.WriteString(".")

	if lang := strings.TrimSpace(input.Language); lang != "" {
		fmt.Fprintf(&b, " Written primarily in %s.", lang)
	}
	if input.Stars > 0 {
		fmt.Fprintf(&b, " It has %d stars on GitHub.", input.Stars)
	}
	if summary := strings.TrimSpace(input.Summary); summary != "" {
		fmt.Fprintf(&b, " %s", summary)
	}
	if len(input.Facts) > 0 {
		fmt.Fprintf(&b, " Notable points: %s.", strings.Join(input.Facts, "; "))
	}
	if release := strings.TrimSpace(input.LatestRelease); release != "" {
		fmt.Fprintf(&b, " The latest release is %s.", release)
	}

	return b.String()
}

func leadingSentences(text string, maxSentences, maxLen int) string {
	if text == "" {
		return ""
	}

	var sentences []string
	remaining := text
	for len(sentences) < maxSentences && remaining != "" {
		idx := strings.IndexAny(remaining, ".!?")
		if idx < 0 {
			sentences = append(sentences, strings.TrimSpace(remaining))
			break
		}
		sentences = append(sentences, strings.TrimSpace(remaining[:idx+1]))
		remaining = strings.TrimSpace(remaining[idx+1:])
	}

	joined := strings.Join(sentences, " ")
	if len(joined) > maxLen {
		joined = strings.TrimSpace(joined[:maxLen]) + "..."
	}
	return joined
}

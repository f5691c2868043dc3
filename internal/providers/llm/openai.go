package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const (
	openAIModel       = "gpt-4o-mini"
	summarizeMaxChars = 8000
	factsMarker       = "FACTS:"
)

var errEmptyCompletion = errors.New("empty completion")

// OpenAISummarizer implements Summarizer against the OpenAI chat API
// through langchaingo.
type OpenAISummarizer struct {
	model llms.Model
	log   *zap.Logger
}

func NewOpenAI(apiKey string, log *zap.Logger) (*OpenAISummarizer, error) {
	model, err := openai.New(
		openai.WithToken(strings.TrimSpace(apiKey)),
		openai.WithModel(openAIModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &OpenAISummarizer{
		model: model,
		log:   log.Named("providers.llm"),
	}, nil
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, readme string) (*ReadmeSummary, error) {
	truncated := readme
	if len(truncated) > summarizeMaxChars {
		truncated = truncated[:summarizeMaxChars]
	}

	prompt := fmt.Sprintf(
		"Summarize the following repository README in two or three sentences. "+
			"After the summary, write a line containing exactly %q followed by up to five short bullet lines, each starting with \"- \", stating concrete facts about the project.\n\nREADME:\n%s",
		factsMarker, truncated)

	completion, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt,
		llms.WithTemperature(0.3),
	)
	if err != nil {
		return nil, err
	}

	summary, facts := parseCompletion(completion)
	if summary == "" {
		return nil, errEmptyCompletion
	}
	return &ReadmeSummary{Summary: summary, Facts: facts}, nil
}

func (s *OpenAISummarizer) Unify(ctx context.Context, input UnifyInput) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", input.RepoName)
	if input.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", input.Description)
	}
	if input.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", input.Language)
	}
	if input.Stars > 0 {
		fmt.Fprintf(&b, "Stars: %d\n", input.Stars)
	}
	if input.Summary != "" {
		fmt.Fprintf(&b, "README summary: %s\n", input.Summary)
	}
	if len(input.Facts) > 0 {
		fmt.Fprintf(&b, "Facts: %s\n", strings.Join(input.Facts, "; "))
	}
	if input.LatestRelease != "" {
		fmt.Fprintf(&b, "Latest release: %s\n", input.LatestRelease)
	}
	if len(input.CommitSubjects) > 0 {
		fmt.Fprintf(&b, "Recent commits: %s\n", strings.Join(input.CommitSubjects, "; "))
	}

	prompt := fmt.Sprintf(
		"Write a single cohesive paragraph describing this repository for a developer audience. Use only the information below, do not invent details.\n\n%s",
		b.String())

	completion, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt,
		llms.WithTemperature(0.3),
	)
	if err != nil {
		return "", err
	}

	unified := strings.TrimSpace(completion)
	if unified == "" {
		return "", errEmptyCompletion
	}
	return unified, nil
}

func parseCompletion(completion string) (string, []string) {
	head, tail, found := strings.Cut(completion, factsMarker)
	summary := strings.TrimSpace(head)
	if !found {
		return summary, nil
	}

	var facts []string
	for _, line := range strings.Split(tail, "\n") {
		trimmed := strings.TrimSpace(line)
		if fact, ok := strings.CutPrefix(trimmed, "- "); ok {
			if fact = strings.TrimSpace(fact); fact != "" {
				facts = append(facts, fact)
			}
		}
	}
	return summary, facts
}

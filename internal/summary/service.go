// Package summary orchestrates repository summarization: snapshot
// lookup, fetch, and the summarizer passes with their fallbacks.
package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/cache"
	githubprovider "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/providers/github"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/providers/llm"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	summarizeTimeout = 8 * time.Second
	unifyTimeout     = 10 * time.Second
)

// Result is the outcome of a summarization request. Summary is always
// populated: summarizer failures degrade to the local fallback, never
// to an error.
type Result struct {
	Summary  string
	Snapshot *githubprovider.RepositorySnapshot
}

type Service interface {
	Summarize(ctx context.Context, githubURL string) (*Result, error)
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Fetcher    githubprovider.Fetcher
	Cache      cache.SnapshotCache
	Summarizer llm.Summarizer
}

type service struct {
	log        *zap.Logger
	fetcher    githubprovider.Fetcher
	cache      cache.SnapshotCache
	summarizer llm.Summarizer

	summarizeTimeout time.Duration
	unifyTimeout     time.Duration
}

func New(p Params) Service {
	return &service{
		log:              p.Log.Named("summary.service"),
		fetcher:          p.Fetcher,
		cache:            p.Cache,
		summarizer:       p.Summarizer,
		summarizeTimeout: summarizeTimeout,
		unifyTimeout:     unifyTimeout,
	}
}

func (s *service) Summarize(ctx context.Context, githubURL string) (*Result, error) {
	owner, repo, err := githubprovider.ParseRepoURL(githubURL)
	if err != nil {
		return nil, err
	}

	snapshot, ok := s.cache.Get(owner, repo)
	if !ok {
		snapshot, err = s.fetcher.Fetch(ctx, owner, repo)
		if err != nil {
			return nil, err
		}
		s.cache.Set(owner, repo, snapshot)
	}

	readmeSummary := s.summarizeReadme(ctx, snapshot.Readme)
	unified := s.unify(ctx, buildUnifyInput(snapshot, readmeSummary))

	return &Result{Summary: unified, Snapshot: snapshot}, nil
}

// summarizeReadme races the summarizer against its timeout. A late or
// failed result is discarded in favor of the deterministic fallback.
func (s *service) summarizeReadme(ctx context.Context, readme string) llm.ReadmeSummary {
	cctx, cancel := context.WithTimeout(ctx, s.summarizeTimeout)
	defer cancel()

	type outcome struct {
		summary *llm.ReadmeSummary
		err     error
	}
	ch := make(chan outcome, 1)
	go func() {
		summary, err := s.summarizer.Summarize(cctx, readme)
		ch <- outcome{summary, err}
	}()

	select {
	case out := <-ch:
		if out.err != nil || out.summary == nil {
			if out.err != nil {
				s.log.Warn("summarize failed, using fallback", zap.Error(out.err))
			}
			return llm.FallbackSummarize(readme)
		}
		return *out.summary
	case <-cctx.Done():
		s.log.Warn("summarize timed out, using fallback")
		return llm.FallbackSummarize(readme)
	}
}

func (s *service) unify(ctx context.Context, input llm.UnifyInput) string {
	cctx, cancel := context.WithTimeout(ctx, s.unifyTimeout)
	defer cancel()

	type outcome struct {
		unified string
		err     error
	}
	ch := make(chan outcome, 1)
	go func() {
		unified, err := s.summarizer.Unify(cctx, input)
		ch <- outcome{unified, err}
	}()

	select {
	case out := <-ch:
		if out.err != nil || out.unified == "" {
			if out.err != nil {
				s.log.Warn("unify failed, using fallback", zap.Error(out.err))
			}
			return llm.FallbackUnify(input)
		}
		return out.unified
	case <-cctx.Done():
		s.log.Warn("unify timed out, using fallback")
		return llm.FallbackUnify(input)
	}
}

func buildUnifyInput(snapshot *githubprovider.RepositorySnapshot, readmeSummary llm.ReadmeSummary) llm.UnifyInput {
	input := llm.UnifyInput{
		RepoName:    snapshot.Repository.FullName,
		Description: snapshot.Repository.Description,
		Language:    snapshot.Repository.Language,
		Stars:       snapshot.Repository.Stars,
		Summary:     readmeSummary.Summary,
		Facts:       readmeSummary.Facts,
	}
	if input.RepoName == "" {
		input.RepoName = fmt.Sprintf("%s/%s", snapshot.Repository.Owner, snapshot.Repository.Name)
	}
	if snapshot.Release != nil {
		input.LatestRelease = snapshot.Release.TagName
	}
	for _, commit := range snapshot.Commits {
		input.CommitSubjects = append(input.CommitSubjects, commit.Message)
	}
	return input
}

package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/clock"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/config"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

const (
	recentCommitCount = 5
	shortSHALength    = 7

	retryBaseBackoff = 200 * time.Millisecond
	retryMaxAttempts = 2
)

// Fetcher returns normalized repository snapshots.
type Fetcher interface {
	Fetch(ctx context.Context, owner, repo string) (*RepositorySnapshot, error)
}

type fetcher struct {
	client *github.Client
	log    *zap.Logger
	clock  clock.Clock
}

// New builds a Fetcher from config. A GitHub token is optional; without
// one the client runs against the anonymous rate limit.
func New(cfg config.Config, log *zap.Logger, clk clock.Clock) Fetcher {
	var httpClient *http.Client
	if cfg.GitHubToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	return NewWithClient(github.NewClient(httpClient), log, clk)
}

// NewWithClient wires an explicit client, used by tests to point at a
// local server.
func NewWithClient(client *github.Client, log *zap.Logger, clk clock.Clock) Fetcher {
	return &fetcher{
		client: client,
		log:    log.Named("providers.github"),
		clock:  clk,
	}
}

// Fetch issues the four REST calls concurrently. A failed release,
// readme or commit call degrades that field; a failed core metadata
// call fails the whole fetch.
func (f *fetcher) Fetch(ctx context.Context, owner, repo string) (*RepositorySnapshot, error) {
	snapshot := &RepositorySnapshot{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		meta, err := f.fetchRepository(gctx, owner, repo)
		if err != nil {
			return err
		}
		snapshot.Repository = *meta
		return nil
	})

	g.Go(func() error {
		release, _, err := f.client.Repositories.GetLatestRelease(gctx, owner, repo)
		if err != nil {
			f.log.Debug("latest release unavailable",
				zap.String("repo", owner+"/"+repo), zap.Error(err))
			return nil
		}
		snapshot.Release = &Release{
			TagName:     release.GetTagName(),
			Name:        release.GetName(),
			Body:        release.GetBody(),
			URL:         release.GetHTMLURL(),
			PublishedAt: release.GetPublishedAt().Time,
		}
		return nil
	})

	g.Go(func() error {
		readme, _, err := f.client.Repositories.GetReadme(gctx, owner, repo, nil)
		if err != nil {
			f.log.Debug("readme unavailable",
				zap.String("repo", owner+"/"+repo), zap.Error(err))
			return nil
		}
		content, err := readme.GetContent()
		if err != nil {
			f.log.Debug("readme undecodable",
				zap.String("repo", owner+"/"+repo), zap.Error(err))
			return nil
		}
		snapshot.Readme = content
		return nil
	})

	g.Go(func() error {
		commits, _, err := f.client.Repositories.ListCommits(gctx, owner, repo, &github.CommitsListOptions{
			ListOptions: github.ListOptions{PerPage: recentCommitCount},
		})
		if err != nil {
			f.log.Debug("commit listing unavailable",
				zap.String("repo", owner+"/"+repo), zap.Error(err))
			return nil
		}
		for _, c := range commits {
			sha := c.GetSHA()
			if len(sha) > shortSHALength {
				sha = sha[:shortSHALength]
			}
			snapshot.Commits = append(snapshot.Commits, Commit{
				SHA:     sha,
				Message: c.GetCommit().GetMessage(),
				Author:  c.GetCommit().GetAuthor().GetName(),
				Date:    c.GetCommit().GetAuthor().GetDate().Time,
			})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot.FetchedAt = f.clock.Now()
	return snapshot, nil
}

func (f *fetcher) fetchRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	var meta *github.Repository

	backoff := retry.WithMaxRetries(retryMaxAttempts, retry.NewExponential(retryBaseBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var resp *github.Response
		var callErr error
		meta, resp, callErr = f.client.Repositories.Get(ctx, owner, repo)
		if callErr == nil {
			return nil
		}
		if isNotFound(callErr, resp) {
			return callErr
		}
		if isRetryable(resp) {
			return retry.RetryableError(callErr)
		}
		return callErr
	})
	if err != nil {
		if isNotFound(err, nil) {
			return nil, fmt.Errorf("%w: %s/%s", ErrRepositoryNotFound, owner, repo)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var license string
	if meta.GetLicense() != nil {
		license = meta.GetLicense().GetName()
	}
	var ownerLogin string
	if meta.GetOwner() != nil {
		ownerLogin = meta.GetOwner().GetLogin()
	}
	if ownerLogin == "" {
		ownerLogin = owner
	}

	return &Repository{
		Owner:         ownerLogin,
		Name:          meta.GetName(),
		FullName:      meta.GetFullName(),
		Description:   meta.GetDescription(),
		Language:      meta.GetLanguage(),
		Stars:         meta.GetStargazersCount(),
		Forks:         meta.GetForksCount(),
		Watchers:      meta.GetSubscribersCount(),
		OpenIssues:    meta.GetOpenIssuesCount(),
		License:       license,
		Topics:        meta.Topics,
		DefaultBranch: meta.GetDefaultBranch(),
		Private:       meta.GetPrivate(),
		URL:           meta.GetHTMLURL(),
		CreatedAt:     meta.GetCreatedAt().Time,
		UpdatedAt:     meta.GetUpdatedAt().Time,
	}, nil
}

func isNotFound(err error, resp *github.Response) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == http.StatusNotFound
	}
	return strings.Contains(err.Error(), "404")
}

func isRetryable(resp *github.Response) bool {
	if resp == nil {
		return true
	}
	return resp.StatusCode >= http.StatusInternalServerError
}

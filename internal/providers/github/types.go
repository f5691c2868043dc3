// Package github fetches normalized repository snapshots from the GitHub
// REST API.
package github

import (
	"errors"
	"time"
)

// Repository is the core metadata of a fetched repository.
type Repository struct {
	Owner         string    `json:"owner"`
	Name          string    `json:"name"`
	FullName      string    `json:"fullName"`
	Description   string    `json:"description"`
	Language      string    `json:"language"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	Watchers      int       `json:"watchers"`
	OpenIssues    int       `json:"openIssues"`
	License       string    `json:"license"`
	Topics        []string  `json:"topics"`
	DefaultBranch string    `json:"defaultBranch"`
	Private       bool      `json:"private"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Release describes the latest published release, if any.
type Release struct {
	TagName     string    `json:"tagName"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Commit is one entry of the recent-commit listing.
type Commit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

// RepositorySnapshot is the normalized bundle returned by the fetcher.
// Release is nil when the repository has no releases, Readme is empty
// when absent or undecodable, Commits may be empty on listing failure.
type RepositorySnapshot struct {
	Repository Repository `json:"repository"`
	Release    *Release   `json:"latestRelease"`
	Readme     string     `json:"readme"`
	Commits    []Commit   `json:"recentCommits"`
	FetchedAt  time.Time  `json:"fetchedAt"`
}

var (
	ErrInvalidRepoURL     = errors.New("invalid repository url")
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrUpstream           = errors.New("github upstream unavailable")
)

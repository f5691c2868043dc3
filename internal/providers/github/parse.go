package github

import (
	"net/url"
	"strings"
)

// ParseRepoURL accepts exactly https://github.com/<owner>/<repo>, with an
// optional trailing slash. Anything else is rejected before any network
// call is made.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", ErrInvalidRepoURL
	}

	parsed, parseErr := url.Parse(trimmed)
	if parseErr != nil {
		return "", "", ErrInvalidRepoURL
	}
	if parsed.Scheme != "https" || !strings.EqualFold(parsed.Host, "github.com") {
		return "", "", ErrInvalidRepoURL
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" || parsed.User != nil {
		return "", "", ErrInvalidRepoURL
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidRepoURL
	}

	return parts[0], parts[1], nil
}

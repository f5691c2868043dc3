package github

import "testing"

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		owner   string
		repo    string
		wantErr bool
	}{
		{name: "plain", input: "https://github.com/golang/go", owner: "golang", repo: "go"},
		{name: "trailing slash", input: "https://github.com/golang/go/", owner: "golang", repo: "go"},
		{name: "surrounding space", input: "  https://github.com/golang/go  ", owner: "golang", repo: "go"},
		{name: "empty", input: "", wantErr: true},
		{name: "not a url", input: "not-a-url", wantErr: true},
		{name: "http scheme", input: "http://github.com/golang/go", wantErr: true},
		{name: "wrong host", input: "https://gitlab.com/golang/go", wantErr: true},
		{name: "missing repo", input: "https://github.com/golang", wantErr: true},
		{name: "extra path", input: "https://github.com/golang/go/tree/master", wantErr: true},
		{name: "query string", input: "https://github.com/golang/go?tab=readme", wantErr: true},
		{name: "fragment", input: "https://github.com/golang/go#readme", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tc.input)
			if tc.wantErr {
				if err != ErrInvalidRepoURL {
					t.Fatalf("expected ErrInvalidRepoURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if owner != tc.owner || repo != tc.repo {
				t.Fatalf("expected %s/%s, got %s/%s", tc.owner, tc.repo, owner, repo)
			}
		})
	}
}

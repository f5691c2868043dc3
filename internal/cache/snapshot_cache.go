package cache

import (
	"strings"
	"time"

	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/clock"
	githubprovider "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/providers/github"
)

const defaultSnapshotTTL = 10 * time.Minute

// SnapshotCache stores fetched repository snapshots keyed by owner/repo.
// A fresh entry short-circuits the whole upstream fetch.
type SnapshotCache interface {
	Get(owner, repo string) (*githubprovider.RepositorySnapshot, bool)
	Set(owner, repo string, snapshot *githubprovider.RepositorySnapshot)
}

type snapshotCache struct {
	snapshots Cache[string, *githubprovider.RepositorySnapshot]
	ttl       time.Duration
}

// NewSnapshotCache returns an in-memory snapshot cache with the default TTL.
func NewSnapshotCache(clk clock.Clock) SnapshotCache {
	return &snapshotCache{
		snapshots: NewTTLCacheWithClock[string, *githubprovider.RepositorySnapshot](clk),
		ttl:       defaultSnapshotTTL,
	}
}

func (c *snapshotCache) Get(owner, repo string) (*githubprovider.RepositorySnapshot, bool) {
	return c.snapshots.Get(snapshotKey(owner, repo))
}

func (c *snapshotCache) Set(owner, repo string, snapshot *githubprovider.RepositorySnapshot) {
	if snapshot == nil {
		return
	}
	c.snapshots.Set(snapshotKey(owner, repo), snapshot, c.ttl)
}

func snapshotKey(owner, repo string) string {
	return strings.ToLower(strings.TrimSpace(owner)) + "/" + strings.ToLower(strings.TrimSpace(repo))
}

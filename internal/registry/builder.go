package registry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"blue-carbon-registry/registry-backend/internal/projects"
	"blue-carbon-registry/registry-backend/pkg/storage"
)

// SyncResult is returned from a successful snapshot publish.
type SyncResult struct {
	IPFSHash  string `json:"ipfsHash"`
	IPFSURL   string `json:"ipfsUrl"`
	Stats     Stats  `json:"stats"`
	Timestamp string `json:"timestamp"`
}

// Builder assembles registry snapshots from the full project set, pins them
// and records the latest pointer in the snapshot store.
type Builder struct {
	repo   projects.Repository
	pinner storage.Pinner
	store  SnapshotStore
	logger *zap.Logger
}

// NewBuilder creates a snapshot builder.
func NewBuilder(repo projects.Repository, pinner storage.Pinner, store SnapshotStore, logger *zap.Logger) *Builder {
	return &Builder{repo: repo, pinner: pinner, store: store, logger: logger}
}

// BuildAndPublish queries every project, recomputes stats from scratch, pins
// the snapshot and then updates the cached pointer. The pointer is only
// written after the pin succeeds, so the cache never references a snapshot
// that was not published. A cache write failure is logged, not returned: the
// pin already happened and the next publish will repair the pointer.
func (b *Builder) BuildAndPublish(ctx context.Context) (*SyncResult, error) {
	list, err := b.repo.Find(ctx, projects.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load projects for snapshot: %w", err)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	snapshot := &Snapshot{
		Version:      SnapshotVersion,
		Timestamp:    timestamp,
		Stats:        ComputeStats(list),
		Projects:     list,
		ActivityFeed: BuildActivityFeed(list, activityFeedLimit),
	}

	res, err := b.pinner.PinJSON(ctx, snapshot, "BlueCarbon-Registry-"+timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to pin registry snapshot: %w", err)
	}

	entry := &CacheEntry{
		IPFSHash:  res.IPFSHash,
		IPFSURL:   res.IPFSURL,
		Stats:     snapshot.Stats,
		Timestamp: timestamp,
	}
	if err := b.store.Save(entry); err != nil {
		b.logger.Error("Failed to persist snapshot pointer",
			zap.String("ipfsHash", res.IPFSHash),
			zap.Error(err))
	}

	b.logger.Info("Registry snapshot published",
		zap.String("ipfsHash", res.IPFSHash),
		zap.Int("projects", snapshot.Stats.TotalProjects),
		zap.Bool("pinned", res.Pinned))

	return &SyncResult{
		IPFSHash:  res.IPFSHash,
		IPFSURL:   res.IPFSURL,
		Stats:     snapshot.Stats,
		Timestamp: timestamp,
	}, nil
}

// PublishAsync rebuilds the snapshot in the background, used after status
// transitions where the caller should not wait on the pinning service.
func (b *Builder) PublishAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if _, err := b.BuildAndPublish(ctx); err != nil {
			b.logger.Error("Background snapshot publish failed", zap.Error(err))
		}
	}()
}

package registry

import (
	"math"
	"strings"
	"time"

	"blue-carbon-registry/registry-backend/internal/projects"
)

// SnapshotVersion tags the pinned snapshot document format.
const SnapshotVersion = "1.0"

// activityFeedLimit bounds the recent-activity list embedded in snapshots.
const activityFeedLimit = 20

// Stats are the aggregate statistics recomputed from the full project set on
// every snapshot build. Never patched incrementally.
type Stats struct {
	TotalProjects    int     `json:"totalProjects"`
	PendingProjects  int     `json:"pendingProjects"`
	ReviewProjects   int     `json:"reviewProjects"`
	ApprovedProjects int     `json:"approvedProjects"`
	RejectedProjects int     `json:"rejectedProjects"`
	TotalArea        float64 `json:"totalArea"`
	TotalCarbon      float64 `json:"totalCarbon"`
}

// ActivityEntry is one line of the recent-activity feed.
type ActivityEntry struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Location  string    `json:"location,omitempty"`
}

// Snapshot is the immutable point-in-time registry aggregate pinned to IPFS.
type Snapshot struct {
	Version      string              `json:"version"`
	Timestamp    string              `json:"timestamp"`
	Stats        Stats               `json:"stats"`
	Projects     []*projects.Project `json:"projects"`
	ActivityFeed []ActivityEntry     `json:"activityFeed"`
}

// Canonical status buckets. Every status rollup in the system (snapshot
// stats, dashboard, report filters) goes through this one mapping.
const (
	BucketPending  = "pending"
	BucketReview   = "review"
	BucketApproved = "approved"
	BucketRejected = "rejected"
)

// StatusBucket maps a workflow status to its canonical bucket:
// pending = SUBMITTED|DRAFT, review = UNDER_REVIEW|REVIEW,
// approved = APPROVED|MINTED, rejected = REJECTED. Unknown statuses map to
// the empty string.
func StatusBucket(status string) string {
	switch status {
	case projects.StatusSubmitted, projects.StatusDraft:
		return BucketPending
	case projects.StatusUnderReview, "REVIEW":
		return BucketReview
	case projects.StatusApproved, projects.StatusMinted:
		return BucketApproved
	case projects.StatusRejected:
		return BucketRejected
	}
	return ""
}

// ComputeStats buckets projects into the canonical status groups and sums
// area and carbon.
func ComputeStats(list []*projects.Project) Stats {
	stats := Stats{TotalProjects: len(list)}

	for _, p := range list {
		switch StatusBucket(p.Status) {
		case BucketPending:
			stats.PendingProjects++
		case BucketReview:
			stats.ReviewProjects++
		case BucketApproved:
			stats.ApprovedProjects++
		case BucketRejected:
			stats.RejectedProjects++
		}
		stats.TotalArea += p.Restoration.AreaHectares
		stats.TotalCarbon += p.Carbon.EstimatedCO2e
	}

	stats.TotalArea = round2(stats.TotalArea)
	stats.TotalCarbon = round2(stats.TotalCarbon)
	return stats
}

// BuildActivityFeed projects the most recent entries (the input is already
// sorted newest first) into lightweight feed lines.
func BuildActivityFeed(list []*projects.Project, limit int) []ActivityEntry {
	if limit <= 0 {
		limit = activityFeedLimit
	}
	if len(list) < limit {
		limit = len(list)
	}

	feed := make([]ActivityEntry, 0, limit)
	for _, p := range list[:limit] {
		submitter := "User"
		if p.Submitter != nil && p.Submitter.Name != "" {
			submitter = p.Submitter.Name
		}
		name := p.ProjectName
		if name == "" {
			name = "project"
		}

		feed = append(feed, ActivityEntry{
			ID:        p.ID.Hex(),
			ProjectID: p.ProjectID,
			Action:    submitter + " submitted " + name,
			Timestamp: p.CreatedAt,
			Status:    strings.ToLower(p.Status),
			Location:  p.Location.State,
		})
	}
	return feed
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

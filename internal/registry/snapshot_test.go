package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"blue-carbon-registry/registry-backend/internal/projects"
)

func sampleProjects() []*projects.Project {
	return []*projects.Project{
		{
			ID:          primitive.NewObjectID(),
			ProjectID:   "BCR-00003-ABC",
			ProjectName: "Sundarbans Mangrove Belt",
			Status:      projects.StatusApproved,
			Submitter:   &projects.Submitter{Name: "Asha"},
			Location:    projects.Location{State: "West Bengal"},
			Restoration: projects.Restoration{AreaHectares: 2.5},
			Carbon:      projects.Carbon{EstimatedCO2e: 37.5},
			CreatedAt:   time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          primitive.NewObjectID(),
			ProjectID:   "BCR-00002-ABB",
			ProjectName: "Palk Bay Seagrass",
			Status:      projects.StatusUnderReview,
			Restoration: projects.Restoration{AreaHectares: 1.2},
			Carbon:      projects.Carbon{EstimatedCO2e: 9.6},
			CreatedAt:   time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          primitive.NewObjectID(),
			ProjectID:   "BCR-00001-ABA",
			ProjectName: "Chilika Salt Marsh",
			Status:      projects.StatusSubmitted,
			Restoration: projects.Restoration{AreaHectares: 0.8},
			Carbon:      projects.Carbon{EstimatedCO2e: 4.8},
			CreatedAt:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestComputeStatsBuckets(t *testing.T) {
	stats := ComputeStats(sampleProjects())

	assert.Equal(t, 3, stats.TotalProjects)
	assert.Equal(t, 1, stats.PendingProjects)
	assert.Equal(t, 1, stats.ReviewProjects)
	assert.Equal(t, 1, stats.ApprovedProjects)
	assert.Equal(t, 0, stats.RejectedProjects)
	assert.InDelta(t, 4.5, stats.TotalArea, 1e-9)
	assert.InDelta(t, 51.9, stats.TotalCarbon, 1e-9)
}

func TestComputeStatsCountsMintedAsApprovedAndDraftAsPending(t *testing.T) {
	stats := ComputeStats([]*projects.Project{
		{Status: projects.StatusMinted},
		{Status: projects.StatusDraft},
		{Status: projects.StatusRejected},
	})

	assert.Equal(t, 1, stats.ApprovedProjects)
	assert.Equal(t, 1, stats.PendingProjects)
	assert.Equal(t, 1, stats.RejectedProjects)
}

func TestComputeStatsIsDeterministic(t *testing.T) {
	list := sampleProjects()
	assert.Equal(t, ComputeStats(list), ComputeStats(list))
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Equal(t, Stats{}, stats)
}

func TestBuildActivityFeed(t *testing.T) {
	list := sampleProjects()
	feed := BuildActivityFeed(list, 2)

	assert.Len(t, feed, 2)
	assert.Equal(t, "Asha submitted Sundarbans Mangrove Belt", feed[0].Action)
	assert.Equal(t, "approved", feed[0].Status)
	assert.Equal(t, "West Bengal", feed[0].Location)
	assert.Equal(t, "BCR-00003-ABC", feed[0].ProjectID)

	// No populated submitter falls back to a generic actor.
	assert.Equal(t, "User submitted Palk Bay Seagrass", feed[1].Action)
}

func TestBuildActivityFeedShorterThanLimit(t *testing.T) {
	feed := BuildActivityFeed(sampleProjects(), 50)
	assert.Len(t, feed, 3)
}

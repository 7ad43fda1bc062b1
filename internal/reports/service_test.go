package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"blue-carbon-registry/registry-backend/internal/projects"
)

// MockProjectRepository is a mock implementation of projects.Repository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(ctx context.Context, project *projects.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Update(ctx context.Context, project *projects.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*projects.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projects.Project), args.Error(1)
}

func (m *MockProjectRepository) Find(ctx context.Context, filter projects.Filter) ([]*projects.Project, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*projects.Project), args.Error(1)
}

func (m *MockProjectRepository) Count(ctx context.Context, filter projects.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProjectRepository) NextSequence(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func reportProjects(now time.Time) []*projects.Project {
	return []*projects.Project{
		{
			ProjectID: "BCR-00003-C",
			Status:    projects.StatusApproved,
			CreatedAt: now.AddDate(0, 0, -2),
		},
		{
			ProjectID: "BCR-00002-B",
			Status:    projects.StatusUnderReview,
			CreatedAt: now.AddDate(0, 0, -45),
		},
		{
			ProjectID: "BCR-00001-A",
			Status:    projects.StatusSubmitted,
			CreatedAt: now.AddDate(0, 0, -200),
		},
	}
}

func newReportService(t *testing.T, list []*projects.Project) *Service {
	t.Helper()
	mockRepo := new(MockProjectRepository)
	mockRepo.On("Find", mock.Anything, projects.Filter{}).Return(list, nil)
	return NewService(mockRepo, zap.NewNop())
}

func TestGenerateAllProjects(t *testing.T) {
	service := newReportService(t, reportProjects(time.Now()))

	report, err := service.Generate(context.Background(), Filter{Status: "all"})
	require.NoError(t, err)
	assert.Len(t, report.Projects, 3)
	assert.Equal(t, 3, report.Stats.TotalProjects)
	assert.Equal(t, 1, report.Stats.ApprovedProjects)
}

func TestGeneratePendingReviewBucket(t *testing.T) {
	now := time.Now()
	list := append(reportProjects(now),
		&projects.Project{
			ProjectID: "BCR-00004-D",
			Status:    projects.StatusDraft,
			CreatedAt: now.AddDate(0, 0, -1),
		},
		&projects.Project{
			ProjectID: "BCR-00005-E",
			Status:    "REVIEW", // legacy literal still found in stored data
			CreatedAt: now.AddDate(0, 0, -1),
		},
	)
	service := newReportService(t, list)

	report, err := service.Generate(context.Background(), Filter{Status: "pending_review"})
	require.NoError(t, err)
	assert.Len(t, report.Projects, 4)
	for _, p := range report.Projects {
		assert.Contains(t,
			[]string{projects.StatusSubmitted, projects.StatusDraft, projects.StatusUnderReview, "REVIEW"},
			p.Status)
	}
}

func TestGenerateExactStatusIsCaseInsensitive(t *testing.T) {
	service := newReportService(t, reportProjects(time.Now()))

	report, err := service.Generate(context.Background(), Filter{Status: "approved"})
	require.NoError(t, err)
	require.Len(t, report.Projects, 1)
	assert.Equal(t, "BCR-00003-C", report.Projects[0].ProjectID)
}

func TestGenerateDateRangeBuckets(t *testing.T) {
	now := time.Now()
	service := newReportService(t, reportProjects(now))

	cases := []struct {
		dateRange string
		expected  int
	}{
		{"7days", 1},
		{"30days", 1},
		{"3months", 2},
		{"6months", 2},
		{"1year", 3},
	}
	for _, tc := range cases {
		report, err := service.Generate(context.Background(), Filter{Status: "all", DateRange: tc.dateRange})
		require.NoError(t, err, tc.dateRange)
		assert.Len(t, report.Projects, tc.expected, tc.dateRange)
	}
}

func TestGenerateAllDateRangeDisablesCutoff(t *testing.T) {
	service := newReportService(t, reportProjects(time.Now()))

	for _, dateRange := range []string{"all", "ALL", ""} {
		report, err := service.Generate(context.Background(), Filter{Status: "all", DateRange: dateRange})
		require.NoError(t, err, dateRange)
		assert.Len(t, report.Projects, 3, dateRange)
	}
}

func TestGenerateNoMatches(t *testing.T) {
	service := newReportService(t, reportProjects(time.Now()))

	_, err := service.Generate(context.Background(), Filter{Status: "MINTED"})
	assert.ErrorIs(t, err, ErrNoProjects)
}

func TestGenerateRejectsBadFilters(t *testing.T) {
	service := newReportService(t, reportProjects(time.Now()))

	_, err := service.Generate(context.Background(), Filter{Status: "bogus"})
	assert.ErrorIs(t, err, ErrBadFilter)

	_, err = service.Generate(context.Background(), Filter{Status: "all", DateRange: "2weeks"})
	assert.ErrorIs(t, err, ErrBadFilter)
}

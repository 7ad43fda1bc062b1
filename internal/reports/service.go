package reports

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"blue-carbon-registry/registry-backend/internal/projects"
	"blue-carbon-registry/registry-backend/internal/registry"
)

// ErrNoProjects is returned when the filters match nothing; exports respond
// with 404 rather than an empty file.
var ErrNoProjects = errors.New("no projects match the selected filters")

// ErrBadFilter marks unrecognized filter values.
var ErrBadFilter = errors.New("invalid report filter")

// Date range buckets accepted by the export endpoint.
var dateRangeDays = map[string]int{
	"7days":   7,
	"30days":  30,
	"3months": 90,
	"6months": 180,
	"1year":   365,
}

// Filter selects which projects a report covers. Status is "all",
// "pending_review" or an exact workflow status; DateRange is one of the
// bucket keys, or "all"/empty for all time.
type Filter struct {
	Status    string
	DateRange string
}

// Report is a fully assembled export: the selected projects plus aggregates
// recomputed over exactly that selection.
type Report struct {
	GeneratedAt time.Time
	Filter      Filter
	Projects    []*projects.Project
	Stats       registry.Stats
}

// Service assembles reports from the project store.
type Service struct {
	repo   projects.Repository
	logger *zap.Logger
}

// NewService creates a report service.
func NewService(repo projects.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Generate loads and filters projects for an export.
func (s *Service) Generate(ctx context.Context, filter Filter) (*Report, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	list, err := s.repo.Find(ctx, projects.Filter{})
	if err != nil {
		return nil, err
	}

	selected := applyFilter(list, filter, time.Now())
	if len(selected) == 0 {
		return nil, ErrNoProjects
	}

	s.logger.Info("Report generated",
		zap.String("status", filter.Status),
		zap.String("dateRange", filter.DateRange),
		zap.Int("projects", len(selected)))

	return &Report{
		GeneratedAt: time.Now(),
		Filter:      filter,
		Projects:    selected,
		Stats:       registry.ComputeStats(selected),
	}, nil
}

func validateFilter(filter Filter) error {
	if dateRange := normalizeDateRange(filter.DateRange); dateRange != "" {
		if _, ok := dateRangeDays[dateRange]; !ok {
			return ErrBadFilter
		}
	}
	switch normalizeStatus(filter.Status) {
	case "", "all", "pending_review",
		projects.StatusDraft, projects.StatusSubmitted, projects.StatusUnderReview,
		projects.StatusApproved, projects.StatusRejected, projects.StatusMinted:
		return nil
	}
	return ErrBadFilter
}

func applyFilter(list []*projects.Project, filter Filter, now time.Time) []*projects.Project {
	status := normalizeStatus(filter.Status)

	var cutoff time.Time
	if days, ok := dateRangeDays[normalizeDateRange(filter.DateRange)]; ok {
		cutoff = now.AddDate(0, 0, -days)
	}

	var selected []*projects.Project
	for _, p := range list {
		if !matchesStatus(p.Status, status) {
			continue
		}
		if !cutoff.IsZero() && p.CreatedAt.Before(cutoff) {
			continue
		}
		selected = append(selected, p)
	}
	return selected
}

func matchesStatus(projectStatus, filterStatus string) bool {
	switch filterStatus {
	case "", "all":
		return true
	case "pending_review":
		bucket := registry.StatusBucket(projectStatus)
		return bucket == registry.BucketPending || bucket == registry.BucketReview
	default:
		return projectStatus == filterStatus
	}
}

// normalizeDateRange treats "all" the same as an empty range: no cutoff.
func normalizeDateRange(dateRange string) string {
	lowered := strings.ToLower(strings.TrimSpace(dateRange))
	if lowered == "all" {
		return ""
	}
	return lowered
}

func normalizeStatus(status string) string {
	switch lowered := strings.ToLower(strings.TrimSpace(status)); lowered {
	case "", "all", "pending_review":
		return lowered
	default:
		return strings.ToUpper(lowered)
	}
}

package admin

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"blue-carbon-registry/registry-backend/internal/notifications"
	"blue-carbon-registry/registry-backend/internal/projects"
	"blue-carbon-registry/registry-backend/internal/registry"
	"blue-carbon-registry/registry-backend/pkg/workflows"
)

// ErrInvalidTransition is returned when the requested status change is not
// permitted from the project's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// Publisher triggers a registry snapshot rebuild after a review decision.
type Publisher interface {
	PublishAsync()
}

// Service implements the admin review workflow: moving submissions through
// review and republishing the registry snapshot after every decision.
type Service struct {
	repo      projects.Repository
	machine   *workflows.StateMachine
	publisher Publisher
	hub       *notifications.Hub
	logger    *zap.Logger
}

// NewService creates the admin service. hub may be nil when no live feed is
// wired (tests, workers).
func NewService(repo projects.Repository, publisher Publisher, hub *notifications.Hub, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		machine:   workflows.NewStateMachine(),
		publisher: publisher,
		hub:       hub,
		logger:    logger,
	}
}

// Approve moves a project to APPROVED.
func (s *Service) Approve(ctx context.Context, id primitive.ObjectID, reviewer primitive.ObjectID, remarks string) (*projects.Project, error) {
	if remarks == "" {
		remarks = "Project approved"
	}
	return s.transition(ctx, id, projects.StatusApproved, reviewer, remarks)
}

// Reject moves a project to REJECTED. Remarks explain the decision to the
// submitter and are required by the handler.
func (s *Service) Reject(ctx context.Context, id primitive.ObjectID, reviewer primitive.ObjectID, remarks string) (*projects.Project, error) {
	if remarks == "" {
		remarks = "Project rejected"
	}
	return s.transition(ctx, id, projects.StatusRejected, reviewer, remarks)
}

// SendToReview moves a submitted project to UNDER_REVIEW.
func (s *Service) SendToReview(ctx context.Context, id primitive.ObjectID, reviewer primitive.ObjectID, remarks string) (*projects.Project, error) {
	if remarks == "" {
		remarks = "Sent to verifier for review"
	}
	return s.transition(ctx, id, projects.StatusUnderReview, reviewer, remarks)
}

// MarkMinted records that carbon credits were minted for an approved project.
func (s *Service) MarkMinted(ctx context.Context, id primitive.ObjectID, reviewer primitive.ObjectID, remarks string) (*projects.Project, error) {
	if remarks == "" {
		remarks = "Carbon credits minted"
	}
	return s.transition(ctx, id, projects.StatusMinted, reviewer, remarks)
}

func (s *Service) transition(ctx context.Context, id primitive.ObjectID, target string, reviewer primitive.ObjectID, remarks string) (*projects.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.machine.Transition(project.Status, target); err != nil {
		return nil, fmt.Errorf("%w: %s cannot move from %s to %s",
			ErrInvalidTransition, project.ProjectID, project.Status, target)
	}

	project.AppendStatus(target, reviewer, remarks)
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("Project status changed",
		zap.String("projectId", project.ProjectID),
		zap.String("status", target),
		zap.String("reviewer", reviewer.Hex()))

	if s.hub != nil {
		s.hub.Broadcast(notifications.Event{
			Type:      "status_change",
			ProjectID: project.ProjectID,
			Action:    remarks,
			Status:    target,
		})
	}

	// The public registry reflects review decisions on the next snapshot;
	// the admin response does not wait for the pin.
	if s.publisher != nil {
		s.publisher.PublishAsync()
	}

	return project, nil
}

// ListProjects returns projects for the review queue, optionally filtered by
// status, with the total count for pagination.
func (s *Service) ListProjects(ctx context.Context, status string, page, limit int64) ([]*projects.Project, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := projects.Filter{
		Status: status,
		Skip:   (page - 1) * limit,
		Limit:  limit,
	}

	list, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, projects.Filter{Status: status})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Stats recomputes registry statistics straight from the database.
func (s *Service) Stats(ctx context.Context) (registry.Stats, error) {
	list, err := s.repo.Find(ctx, projects.Filter{})
	if err != nil {
		return registry.Stats{}, err
	}
	return registry.ComputeStats(list), nil
}

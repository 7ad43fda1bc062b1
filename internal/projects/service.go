package projects

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"blue-carbon-registry/registry-backend/internal/notifications"
	"blue-carbon-registry/registry-backend/pkg/geospatial"
	"blue-carbon-registry/registry-backend/pkg/storage"
)

// ErrValidation marks input errors the handler maps to a 400 response.
var ErrValidation = errors.New("validation failed")

// PhotoUpload is a photo already saved to the local uploads directory.
type PhotoUpload struct {
	Path         string
	Filename     string
	OriginalName string
	ContentType  string
}

// CreateProjectInput is the payload of a new restoration submission.
type CreateProjectInput struct {
	ProjectName string
	Description string

	Latitude    float64
	Longitude   float64
	Accuracy    *float64
	State       string
	District    string
	Village     string
	CoastalZone string

	AreaHectares      float64
	SiteBoundary      string
	Species           []Species
	EcosystemType     string
	PlantingDate      *time.Time
	SequestrationRate float64

	SaveAsDraft         bool
	IsOfflineSubmission bool
	Photos              []PhotoUpload
}

// UpdateProjectInput edits a DRAFT or REJECTED project before resubmission.
type UpdateProjectInput struct {
	ProjectName   *string
	Description   *string
	Latitude      *float64
	Longitude     *float64
	State         *string
	District      *string
	Village       *string
	AreaHectares  *float64
	EcosystemType *string
	Photos        []PhotoUpload
}

// Service implements project submission and the user-facing read paths.
type Service struct {
	repo    Repository
	pinner  storage.Pinner
	archive storage.ObjectStore
	hub     *notifications.Hub
	logger  *zap.Logger
}

// NewService creates a project service. hub may be nil when no live feed is
// wired (tests, workers).
func NewService(repo Repository, pinner storage.Pinner, archive storage.ObjectStore, hub *notifications.Hub, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		pinner:  pinner,
		archive: archive,
		hub:     hub,
		logger:  logger,
	}
}

// Create validates and stores a new submission. Photos are pinned to IPFS;
// pin failures degrade to local storage with a "pending" hash.
func (s *Service) Create(ctx context.Context, submitterID primitive.ObjectID, in CreateProjectInput) (*Project, error) {
	if in.SiteBoundary != "" {
		if err := applyBoundary(&in); err != nil {
			return nil, err
		}
	}
	if err := validateSubmission(in); err != nil {
		return nil, err
	}

	if in.EcosystemType == "" {
		in.EcosystemType = EcosystemMangrove
	}

	seq, err := s.repo.NextSequence(ctx)
	if err != nil {
		return nil, err
	}

	project := &Project{
		ProjectID:     NewProjectID(seq, time.Now()),
		ProjectName:   in.ProjectName,
		Description:   in.Description,
		SubmittedByID: submitterID,
		Location: Location{
			Latitude:     in.Latitude,
			Longitude:    in.Longitude,
			Accuracy:     in.Accuracy,
			State:        in.State,
			District:     in.District,
			Village:      in.Village,
			CoastalZone:  in.CoastalZone,
			SiteBoundary: in.SiteBoundary,
		},
		Restoration: Restoration{
			AreaHectares:  in.AreaHectares,
			Species:       in.Species,
			EcosystemType: in.EcosystemType,
			PlantingDate:  in.PlantingDate,
		},
		Carbon: Carbon{
			SequestrationRate: in.SequestrationRate,
		},
		Photos:              s.pinPhotos(ctx, in.Photos),
		IsOfflineSubmission: in.IsOfflineSubmission,
	}

	status := StatusSubmitted
	remarks := "Initial project submission"
	if in.SaveAsDraft {
		status = StatusDraft
		remarks = "Saved as draft"
	}
	project.AppendStatus(status, submitterID, remarks)
	project.ApplyCarbonEstimate()

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}

	stored, err := s.repo.FindByID(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	s.broadcastSubmission(stored)
	return stored, nil
}

// Resubmit applies edits to a DRAFT or REJECTED project owned by the caller
// and moves it back to SUBMITTED.
func (s *Service) Resubmit(ctx context.Context, id, submitterID primitive.ObjectID, in UpdateProjectInput) (*Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.SubmittedByID != submitterID {
		return nil, ErrNotFound
	}
	if project.Status != StatusDraft && project.Status != StatusRejected {
		return nil, fmt.Errorf("%w: cannot edit project with status %s", ErrValidation, project.Status)
	}

	if in.ProjectName != nil {
		project.ProjectName = *in.ProjectName
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.Latitude != nil {
		project.Location.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		project.Location.Longitude = *in.Longitude
	}
	if in.State != nil {
		project.Location.State = *in.State
	}
	if in.District != nil {
		project.Location.District = *in.District
	}
	if in.Village != nil {
		project.Location.Village = *in.Village
	}
	if in.AreaHectares != nil {
		project.Restoration.AreaHectares = *in.AreaHectares
	}
	if in.EcosystemType != nil {
		if !ValidEcosystemType(*in.EcosystemType) {
			return nil, fmt.Errorf("%w: invalid ecosystem type %q", ErrValidation, *in.EcosystemType)
		}
		project.Restoration.EcosystemType = *in.EcosystemType
	}
	if err := validateCoordinates(project.Location.Latitude, project.Location.Longitude); err != nil {
		return nil, err
	}
	if project.Restoration.AreaHectares < 0.01 {
		return nil, fmt.Errorf("%w: area must be at least 0.01 hectares", ErrValidation)
	}

	project.Photos = append(project.Photos, s.pinPhotos(ctx, in.Photos)...)
	project.AppendStatus(StatusSubmitted, submitterID, "Project resubmitted after edits")
	project.ApplyCarbonEstimate()

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}

	stored, err := s.repo.FindByID(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	s.broadcastSubmission(stored)
	return stored, nil
}

// GetForUser fetches a single project owned by the caller.
func (s *Service) GetForUser(ctx context.Context, id, submitterID primitive.ObjectID) (*Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.SubmittedByID != submitterID {
		return nil, ErrNotFound
	}
	return project, nil
}

// ListForUser lists the caller's projects, newest first.
func (s *Service) ListForUser(ctx context.Context, submitterID primitive.ObjectID, status string, page, limit int64) ([]*Project, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	filter := Filter{
		Status:      status,
		SubmittedBy: &submitterID,
		Skip:        (page - 1) * limit,
		Limit:       limit,
	}

	results, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, Filter{Status: status, SubmittedBy: &submitterID})
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// pinPhotos pins each uploaded photo and degrades to local storage when the
// pin fails. Archival to S3 runs in the background and never blocks the
// submission.
func (s *Service) pinPhotos(ctx context.Context, uploads []PhotoUpload) []Photo {
	photos := make([]Photo, 0, len(uploads))
	for _, up := range uploads {
		photo := Photo{
			Filename:     up.Filename,
			OriginalName: up.OriginalName,
			UploadedAt:   time.Now(),
			PhotoType:    "plantation",
		}

		result, err := s.pinner.PinFile(ctx, up.Path, up.OriginalName)
		if err != nil {
			s.logger.Warn("IPFS pin failed, storing photo locally",
				zap.String("file", up.OriginalName), zap.Error(err))
			photo.IPFSHash = "pending"
			photo.IPFSURL = "/uploads/" + up.Filename
		} else {
			photo.IPFSHash = result.IPFSHash
			photo.IPFSURL = result.IPFSURL
			if photo.IPFSURL == "" {
				photo.IPFSURL = "/uploads/" + up.Filename
			}
		}
		photos = append(photos, photo)

		if s.archive.Enabled() {
			go s.archivePhoto(up)
		}
	}
	return photos
}

// broadcastSubmission pushes a feed event to connected admins when a project
// lands in the review queue. Drafts stay silent until resubmission.
func (s *Service) broadcastSubmission(p *Project) {
	if s.hub == nil || p.Status != StatusSubmitted {
		return
	}

	submitter := "User"
	if p.Submitter != nil && p.Submitter.Name != "" {
		submitter = p.Submitter.Name
	}
	s.hub.Broadcast(notifications.Event{
		Type:      "project_submitted",
		ProjectID: p.ProjectID,
		Action:    submitter + " submitted " + p.ProjectName,
		Status:    p.Status,
	})
}

func (s *Service) archivePhoto(up PhotoUpload) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	f, err := os.Open(up.Path)
	if err != nil {
		s.logger.Error("Failed to open photo for archival", zap.String("file", up.Filename), zap.Error(err))
		return
	}
	defer f.Close()

	key := "photos/" + up.Filename
	if err := s.archive.Upload(ctx, key, f, up.ContentType); err != nil {
		s.logger.Error("Failed to archive photo", zap.String("key", key), zap.Error(err))
	}
}

// applyBoundary validates the site boundary GeoJSON and fills in area and
// GPS fix from the polygon when the submitter left them out.
func applyBoundary(in *CreateProjectInput) error {
	boundary, err := geospatial.ParseBoundary(in.SiteBoundary)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if in.AreaHectares == 0 {
		in.AreaHectares = math.Round(geospatial.AreaHectares(boundary)*100) / 100
	}
	if in.Latitude == 0 && in.Longitude == 0 {
		centroid := geospatial.Centroid(boundary)
		in.Longitude = centroid.Lon()
		in.Latitude = centroid.Lat()
	}
	return nil
}

func validateSubmission(in CreateProjectInput) error {
	if in.ProjectName == "" {
		return fmt.Errorf("%w: project name is required", ErrValidation)
	}
	if len(in.ProjectName) > 200 {
		return fmt.Errorf("%w: project name cannot exceed 200 characters", ErrValidation)
	}
	if len(in.Description) > 2000 {
		return fmt.Errorf("%w: description cannot exceed 2000 characters", ErrValidation)
	}
	if err := validateCoordinates(in.Latitude, in.Longitude); err != nil {
		return err
	}
	if in.AreaHectares < 0.01 {
		return fmt.Errorf("%w: area must be at least 0.01 hectares", ErrValidation)
	}
	if in.EcosystemType != "" && !ValidEcosystemType(in.EcosystemType) {
		return fmt.Errorf("%w: invalid ecosystem type %q", ErrValidation, in.EcosystemType)
	}
	return nil
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrValidation)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrValidation)
	}
	return nil
}

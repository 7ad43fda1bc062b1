package projects

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"blue-carbon-registry/registry-backend/internal/auth"
)

const (
	maxPhotosPerSubmission = 5
	maxPhotoSize           = 10 << 20 // 10MB
)

var allowedPhotoExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
	".heic": true,
}

// Handler exposes the user-facing project endpoints.
type Handler struct {
	service    *Service
	uploadsDir string
	logger     *zap.Logger
}

// NewHandler creates a projects handler.
func NewHandler(service *Service, uploadsDir string, logger *zap.Logger) *Handler {
	return &Handler{
		service:    service,
		uploadsDir: uploadsDir,
		logger:     logger,
	}
}

// RegisterRoutes registers the project routes under /api/projects.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
}

func (h *Handler) create(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authenticated"})
		return
	}

	in := CreateProjectInput{
		ProjectName:         strings.TrimSpace(c.PostForm("projectName")),
		Description:         strings.TrimSpace(c.PostForm("description")),
		State:               c.PostForm("state"),
		District:            c.PostForm("district"),
		Village:             c.PostForm("village"),
		CoastalZone:         c.PostForm("coastalZone"),
		EcosystemType:       c.PostForm("ecosystemType"),
		SaveAsDraft:         c.PostForm("saveAsDraft") == "true",
		IsOfflineSubmission: c.PostForm("isOfflineSubmission") == "true",
	}

	in.SiteBoundary = strings.TrimSpace(c.PostForm("siteBoundary"))

	// A boundary polygon can stand in for the GPS fix and the area, so the
	// coordinate fields are only mandatory without one.
	var parseErr error
	in.Latitude, parseErr = strconv.ParseFloat(c.PostForm("latitude"), 64)
	if parseErr != nil && in.SiteBoundary == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Valid latitude required"})
		return
	}
	in.Longitude, parseErr = strconv.ParseFloat(c.PostForm("longitude"), 64)
	if parseErr != nil && in.SiteBoundary == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Valid longitude required"})
		return
	}
	in.AreaHectares, parseErr = strconv.ParseFloat(c.PostForm("areaHectares"), 64)
	if parseErr != nil && in.SiteBoundary == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Valid area required"})
		return
	}
	if v := c.PostForm("accuracy"); v != "" {
		if acc, err := strconv.ParseFloat(v, 64); err == nil {
			in.Accuracy = &acc
		}
	}
	if v := c.PostForm("sequestrationRate"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			in.SequestrationRate = rate
		}
	}
	if v := c.PostForm("plantingDate"); v != "" {
		if date, err := time.Parse("2006-01-02", v); err == nil {
			in.PlantingDate = &date
		}
	}
	in.Species = parseSpecies(c.PostForm("species"))

	photos, err := h.savePhotos(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	in.Photos = photos

	project, err := h.service.Create(c.Request.Context(), userID, in)
	if err != nil {
		h.respondError(c, err, "Server error during project submission")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": fmt.Sprintf("Project %q submitted successfully! Estimated CO2e: %g tons", project.ProjectName, project.Carbon.EstimatedCO2e),
		"data":    gin.H{"project": project},
	})
}

func (h *Handler) list(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authenticated"})
		return
	}

	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	status := c.Query("status")

	results, total, err := h.service.ListForUser(c.Request.Context(), userID, status, page, limit)
	if err != nil {
		h.respondError(c, err, "Server error fetching projects")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"projects": results,
			"pagination": gin.H{
				"total": total,
				"page":  page,
				"pages": int64(math.Ceil(float64(total) / float64(limit))),
			},
		},
	})
}

func (h *Handler) get(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authenticated"})
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Project not found"})
		return
	}

	project, err := h.service.GetForUser(c.Request.Context(), id, userID)
	if err != nil {
		h.respondError(c, err, "Server error fetching project")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"project": project}})
}

func (h *Handler) update(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authenticated"})
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Project not found"})
		return
	}

	var in UpdateProjectInput
	if v, present := c.GetPostForm("projectName"); present {
		in.ProjectName = &v
	}
	if v, present := c.GetPostForm("description"); present {
		in.Description = &v
	}
	if v, present := c.GetPostForm("state"); present {
		in.State = &v
	}
	if v, present := c.GetPostForm("district"); present {
		in.District = &v
	}
	if v, present := c.GetPostForm("village"); present {
		in.Village = &v
	}
	if v, present := c.GetPostForm("ecosystemType"); present {
		in.EcosystemType = &v
	}
	if v := c.PostForm("latitude"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			in.Latitude = &lat
		}
	}
	if v := c.PostForm("longitude"); v != "" {
		if lng, err := strconv.ParseFloat(v, 64); err == nil {
			in.Longitude = &lng
		}
	}
	if v := c.PostForm("areaHectares"); v != "" {
		if area, err := strconv.ParseFloat(v, 64); err == nil {
			in.AreaHectares = &area
		}
	}

	photos, err := h.savePhotos(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	in.Photos = photos

	project, err := h.service.Resubmit(c.Request.Context(), id, userID, in)
	if err != nil {
		h.respondError(c, err, "Server error updating project")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Project updated and resubmitted successfully",
		"data":    gin.H{"project": project},
	})
}

// savePhotos stores the uploaded photos in the local uploads directory under
// unique names and returns their descriptors.
func (h *Handler) savePhotos(c *gin.Context) ([]PhotoUpload, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}
	files := form.File["photos"]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > maxPhotosPerSubmission {
		return nil, fmt.Errorf("a maximum of %d photos are allowed per submission", maxPhotosPerSubmission)
	}

	uploads := make([]PhotoUpload, 0, len(files))
	for _, file := range files {
		if err := validatePhoto(file); err != nil {
			return nil, err
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		stored := fmt.Sprintf("photo-%s%s", uuid.New().String(), ext)
		path := filepath.Join(h.uploadsDir, stored)
		if err := c.SaveUploadedFile(file, path); err != nil {
			return nil, fmt.Errorf("failed to store photo %s: %w", file.Filename, err)
		}

		uploads = append(uploads, PhotoUpload{
			Path:         path,
			Filename:     stored,
			OriginalName: file.Filename,
			ContentType:  file.Header.Get("Content-Type"),
		})
	}
	return uploads, nil
}

func validatePhoto(file *multipart.FileHeader) error {
	if file.Size > maxPhotoSize {
		return fmt.Errorf("photo %s exceeds the 10MB size limit", file.Filename)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedPhotoExtensions[ext] {
		return errors.New("only image files (JPEG, PNG, WebP) are allowed")
	}
	return nil
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Project not found"})
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	default:
		h.logger.Error("Project request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fallback})
	}
}

// parseSpecies accepts either a JSON array or a bare species name, matching
// what offline clients send.
func parseSpecies(raw string) []Species {
	if raw == "" {
		return nil
	}
	var parsed []Species
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return parsed
	}
	return []Species{{Name: raw}}
}

package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"blue-carbon-registry/registry-backend/internal/auth"
	"blue-carbon-registry/registry-backend/internal/projects"
)

// decisionFunc is one review operation on the admin service.
type decisionFunc func(ctx context.Context, id, reviewer primitive.ObjectID, remarks string) (*projects.Project, error)

// Handler exposes the admin review endpoints.
type Handler struct {
	service *Service
	users   *auth.Service
	logger  *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(service *Service, users *auth.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, users: users, logger: logger}
}

// RegisterRoutes registers the review routes on the admin group. The group is
// expected to already carry RequireAuth plus RequireRole middleware.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/projects", h.listProjects)
	router.GET("/stats", h.stats)
	router.GET("/users", h.listUsers)
	router.POST("/projects/:id/approve", h.decide(h.service.Approve, false))
	router.POST("/projects/:id/reject", h.decide(h.service.Reject, true))
	router.POST("/projects/:id/send-to-verifier", h.decide(h.service.SendToReview, false))
	router.POST("/projects/:id/mint", h.decide(h.service.MarkMinted, false))
}

func (h *Handler) decide(op decisionFunc, remarksRequired bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid project id"})
			return
		}

		reviewer, ok := auth.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authenticated"})
			return
		}

		var body struct {
			Remarks string `json:"remarks"`
		}
		_ = c.ShouldBindJSON(&body)
		if remarksRequired && body.Remarks == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Remarks are required for this decision"})
			return
		}

		project, err := op(c.Request.Context(), id, reviewer, body.Remarks)
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Project status updated",
			"data":    gin.H{"project": project},
		})
	}
}

func (h *Handler) listProjects(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	list, total, err := h.service.ListProjects(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"projects": list,
			"total":    total,
			"page":     page,
			"limit":    limit,
		},
	})
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"stats": stats}})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"users": users}})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, projects.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Project not found"})
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	default:
		h.logger.Error("Admin request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
	}
}

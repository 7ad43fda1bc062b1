package registry

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the snapshot pointer and manual sync endpoints.
type Handler struct {
	builder *Builder
	store   SnapshotStore
	logger  *zap.Logger
}

// NewHandler creates a registry handler.
func NewHandler(builder *Builder, store SnapshotStore, logger *zap.Logger) *Handler {
	return &Handler{builder: builder, store: store, logger: logger}
}

// RegisterRoutes registers the registry routes on the admin group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ipfs-hash", h.latestHash)
	router.POST("/sync-ipfs", h.syncNow)
}

func (h *Handler) latestHash(c *gin.Context) {
	entry, ok := h.store.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "No registry snapshot has been published yet",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"hash":      entry.IPFSHash,
			"url":       entry.IPFSURL,
			"timestamp": entry.Timestamp,
			"stats":     entry.Stats,
		},
	})
}

func (h *Handler) syncNow(c *gin.Context) {
	result, err := h.builder.BuildAndPublish(c.Request.Context())
	if err != nil {
		h.logger.Error("Manual registry sync failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to sync registry to IPFS",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Registry synced to IPFS successfully",
		"data":    result,
	})
}

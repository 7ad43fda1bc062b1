package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler serves the reconciled admin dashboard. When a poller is attached it
// answers from the poller's cached data and only reconciles on demand before
// the first refresh has landed.
type Handler struct {
	reconciler *Reconciler
	poller     *Poller
}

// NewHandler creates a dashboard handler. poller may be nil.
func NewHandler(reconciler *Reconciler, poller *Poller) *Handler {
	return &Handler{reconciler: reconciler, poller: poller}
}

// RegisterRoutes registers the dashboard route on the admin group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", h.dashboard)
}

func (h *Handler) dashboard(c *gin.Context) {
	var data *AdminData
	if h.poller != nil {
		data = h.poller.Latest()
	}
	if data == nil {
		data = h.reconciler.FetchAdminData(c.Request.Context())
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

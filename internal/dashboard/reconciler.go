package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"blue-carbon-registry/registry-backend/internal/projects"
	"blue-carbon-registry/registry-backend/internal/registry"
)

// carsCO2PerYear is the average yearly CO2e of a passenger car in tonnes,
// used to express total sequestration as cars taken off the road.
const carsCO2PerYear = 4.6

// AdminData is the reconciled dashboard payload. DataSource records where the
// numbers came from: "ipfs", "database" or "none".
type AdminData struct {
	Stats          registry.Stats           `json:"stats"`
	Projects       []*projects.Project      `json:"projects"`
	ActivityFeed   []registry.ActivityEntry `json:"activityFeed"`
	EquivalentCars int64                    `json:"equivalentCars"`
	StatesCount    int                      `json:"statesCount"`
	DataSource     string                   `json:"dataSource"`
	IPFSHash       string                   `json:"ipfsHash,omitempty"`
	LastSynced     string                   `json:"lastSynced,omitempty"`
}

// Reconciler assembles the admin dashboard, preferring the last pinned
// snapshot over a live database query so the dashboard shows what the public
// registry shows.
type Reconciler struct {
	repo       projects.Repository
	store      registry.SnapshotStore
	httpClient *http.Client
	logger     *zap.Logger
}

// NewReconciler creates a dashboard reconciler. gatewayTimeout bounds the
// IPFS gateway fetch; the database fallback uses the caller's context.
func NewReconciler(repo projects.Repository, store registry.SnapshotStore, gatewayTimeout time.Duration, logger *zap.Logger) *Reconciler {
	if gatewayTimeout == 0 {
		gatewayTimeout = 10 * time.Second
	}
	return &Reconciler{
		repo:       repo,
		store:      store,
		httpClient: &http.Client{Timeout: gatewayTimeout},
		logger:     logger,
	}
}

// FetchAdminData never returns an error: every failure degrades to the next
// data source and an empty registry yields a well-formed zero state.
func (r *Reconciler) FetchAdminData(ctx context.Context) *AdminData {
	if entry, ok := r.store.Latest(); ok {
		if data := r.fromSnapshot(ctx, entry); data != nil {
			return data
		}
	}
	return r.fromDatabase(ctx)
}

// fromSnapshot fetches the pinned snapshot through the gateway and validates
// it before trusting it. Any failure returns nil so the caller falls back.
func (r *Reconciler) fromSnapshot(ctx context.Context, entry *registry.CacheEntry) *AdminData {
	snapshot, err := r.fetchSnapshot(ctx, entry.IPFSURL)
	if err != nil {
		r.logger.Warn("IPFS snapshot fetch failed, falling back to database",
			zap.String("ipfsHash", entry.IPFSHash),
			zap.Error(err))
		return nil
	}

	stats := snapshot.Stats
	if stats.TotalProjects != len(snapshot.Projects) {
		// The embedded stats block disagrees with the project list; trust
		// the projects and recompute.
		stats = registry.ComputeStats(snapshot.Projects)
	}

	feed := snapshot.ActivityFeed
	if len(feed) == 0 {
		feed = registry.BuildActivityFeed(snapshot.Projects, 0)
	}

	return &AdminData{
		Stats:          stats,
		Projects:       snapshot.Projects,
		ActivityFeed:   feed,
		EquivalentCars: equivalentCars(stats.TotalCarbon),
		StatesCount:    countStates(snapshot.Projects),
		DataSource:     "ipfs",
		IPFSHash:       entry.IPFSHash,
		LastSynced:     entry.Timestamp,
	}
}

func (r *Reconciler) fetchSnapshot(ctx context.Context, url string) (*registry.Snapshot, error) {
	if url == "" {
		return nil, fmt.Errorf("snapshot has no gateway url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	var snapshot registry.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("malformed snapshot document: %w", err)
	}
	if snapshot.Projects == nil {
		return nil, fmt.Errorf("snapshot document missing projects array")
	}
	return &snapshot, nil
}

func (r *Reconciler) fromDatabase(ctx context.Context) *AdminData {
	list, err := r.repo.Find(ctx, projects.Filter{})
	if err != nil {
		r.logger.Error("Database fallback failed, serving zero state", zap.Error(err))
		return zeroState()
	}
	if len(list) == 0 {
		// An empty registry is indistinguishable from having no data source
		// at all; the dashboard renders the explicit zero state either way.
		return zeroState()
	}

	stats := registry.ComputeStats(list)
	return &AdminData{
		Stats:          stats,
		Projects:       list,
		ActivityFeed:   registry.BuildActivityFeed(list, 0),
		EquivalentCars: equivalentCars(stats.TotalCarbon),
		StatesCount:    countStates(list),
		DataSource:     "database",
	}
}

func zeroState() *AdminData {
	return &AdminData{
		Projects:     []*projects.Project{},
		ActivityFeed: []registry.ActivityEntry{},
		DataSource:   "none",
	}
}

func equivalentCars(totalCarbon float64) int64 {
	return int64(math.Floor(totalCarbon / carsCO2PerYear))
}

func countStates(list []*projects.Project) int {
	seen := make(map[string]struct{})
	for _, p := range list {
		if p.Location.State != "" {
			seen[p.Location.State] = struct{}{}
		}
	}
	return len(seen)
}

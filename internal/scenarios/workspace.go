package scenarios

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/genericsdirect/dealtracker/internal/allocation"
	"github.com/genericsdirect/dealtracker/pkg/enums"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
	"github.com/genericsdirect/dealtracker/pkg/logger"
	"github.com/genericsdirect/dealtracker/pkg/metrics"
)

// workspace is one open scenario. mu serializes every model operation for
// the scenario.
type workspace struct {
	mu          sync.Mutex
	id          uuid.UUID
	name        string
	createdAt   time.Time
	model       *allocation.Model
	phase       enums.ScenarioPhase
	savedAt     *time.Time
	lastUsed    time.Time
	closed      bool
	unsubscribe func()
}

func (w *workspace) close() {
	w.closed = true
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
}

// Registry holds the open workspaces of this process.
type Registry struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*workspace
	idleTTL time.Duration
	now     func() time.Time
	metrics *metrics.AllocationMetrics
	logg    *logger.Logger
	onClose []func(uuid.UUID)
}

// NewRegistry builds an empty registry. A zero idleTTL disables expiry.
func NewRegistry(idleTTL time.Duration, m *metrics.AllocationMetrics, logg *logger.Logger) *Registry {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Registry{
		items:   map[uuid.UUID]*workspace{},
		idleTTL: idleTTL,
		now:     time.Now,
		metrics: m,
		logg:    logg,
	}
}

// OnClose registers fn to run after a workspace leaves the registry, whether
// closed explicitly or swept as idle.
func (r *Registry) OnClose(fn func(uuid.UUID)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClose = append(r.onClose, fn)
}

func (r *Registry) closed(id uuid.UUID) {
	r.mu.Lock()
	hooks := append([]func(uuid.UUID){}, r.onClose...)
	r.mu.Unlock()
	for _, fn := range hooks {
		fn(id)
	}
}

// put registers ws unless a workspace for the same scenario is already open,
// in which case the existing one is returned and ws is closed.
func (r *Registry) put(ws *workspace) *workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.items[ws.id]; ok {
		ws.close()
		return existing
	}
	ws.lastUsed = r.now()
	r.items[ws.id] = ws
	r.metrics.SetOpenWorkspaces(len(r.items))
	return ws
}

// acquire locks the scenario's workspace and returns its release func.
func (r *Registry) acquire(id uuid.UUID) (*workspace, func(), error) {
	r.mu.Lock()
	ws, ok := r.items[id]
	r.mu.Unlock()
	if !ok {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "scenario is not open").WithDetails(map[string]any{"scenario_id": id})
	}

	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "scenario is not open").WithDetails(map[string]any{"scenario_id": id})
	}
	release := func() {
		ws.lastUsed = r.now()
		ws.mu.Unlock()
	}
	return ws, release, nil
}

func (r *Registry) remove(id uuid.UUID) bool {
	r.mu.Lock()
	ws, ok := r.items[id]
	if ok {
		delete(r.items, id)
		r.metrics.SetOpenWorkspaces(len(r.items))
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	ws.mu.Lock()
	ws.close()
	ws.mu.Unlock()
	r.closed(id)
	return true
}

// Len reports how many workspaces are open.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// SweepIdle closes workspaces unused for longer than the idle TTL. Busy
// workspaces are skipped until the next sweep.
func (r *Registry) SweepIdle(ctx context.Context) int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var expired []*workspace
	for id, ws := range r.items {
		if !ws.mu.TryLock() {
			continue
		}
		if ws.lastUsed.Before(cutoff) {
			delete(r.items, id)
			ws.close()
			expired = append(expired, ws)
		}
		ws.mu.Unlock()
	}
	r.metrics.SetOpenWorkspaces(len(r.items))
	r.mu.Unlock()

	for _, ws := range expired {
		r.closed(ws.id)
		fields := map[string]any{"scenario_id": ws.id.String(), "phase": ws.phase.String()}
		r.logg.Info(r.logg.WithFields(ctx, fields), "idle workspace closed")
	}
	return len(expired)
}

func (r *Registry) has(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[id]
	return ok
}

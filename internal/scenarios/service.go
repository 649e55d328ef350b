package scenarios

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/genericsdirect/dealtracker/internal/allocation"
	"github.com/genericsdirect/dealtracker/internal/events"
	"github.com/genericsdirect/dealtracker/pkg/db/models"
	"github.com/genericsdirect/dealtracker/pkg/enums"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
	"github.com/genericsdirect/dealtracker/pkg/logger"
	"github.com/genericsdirect/dealtracker/pkg/metrics"
	"github.com/genericsdirect/dealtracker/pkg/pagination"
)

const defaultNameLayout = "20060102-150405"

// Service drives allocation sessions: it seeds scenarios from the catalog,
// holds them open in memory while the user moves line items and saves
// snapshots to the store.
type Service interface {
	CreateScenario(ctx context.Context, name string) (*BoardDTO, error)
	OpenScenario(ctx context.Context, id uuid.UUID) (*BoardDTO, error)
	Board(ctx context.Context, id uuid.UUID) (*BoardDTO, error)
	Move(ctx context.Context, id uuid.UUID, input MoveInput) (*BoardDTO, error)
	Reset(ctx context.Context, id uuid.UUID) (*BoardDTO, error)
	Save(ctx context.Context, id uuid.UUID) (*SaveResult, error)
	Close(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params) (*ScenarioPage, error)
	Get(ctx context.Context, id uuid.UUID) (*ScenarioDTO, error)
	BucketDetails(ctx context.Context, id uuid.UUID, bucket allocation.BucketID) ([]DetailDTO, error)
}

type catalogProvider interface {
	ListManufacturers(ctx context.Context) ([]allocation.Manufacturer, error)
	ListLineItemsForNewScenario(ctx context.Context) ([]allocation.LineItem, error)
}

type scenarioStore interface {
	CreateScenario(ctx context.Context, name string, items []allocation.LineItem) (uuid.UUID, error)
	PersistAllocations(ctx context.Context, scenarioID uuid.UUID, assignments []allocation.Assignment) (time.Time, error)
	GetScenario(ctx context.Context, id uuid.UUID) (*models.DealScenario, error)
	ListScenarios(ctx context.Context, params pagination.Params) ([]models.DealScenario, string, error)
	ListDetailsByBucket(ctx context.Context, scenarioID uuid.UUID, manufacturerID *int64) ([]models.DealScenarioDetail, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, evt events.Event)
	CloseScenario(scenarioID uuid.UUID) int
}

// ServiceParams wires the scenario service.
type ServiceParams struct {
	Catalog  catalogProvider
	Store    scenarioStore
	Registry *Registry
	Events   eventPublisher
	Metrics  *metrics.AllocationMetrics
	Logger   *logger.Logger
}

type service struct {
	catalog  catalogProvider
	store    scenarioStore
	registry *Registry
	events   eventPublisher
	metrics  *metrics.AllocationMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the scenario service.
func NewService(params ServiceParams) (Service, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog provider required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("scenario store required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("workspace registry required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Events != nil {
		publisher := params.Events
		params.Registry.OnClose(func(id uuid.UUID) {
			publisher.CloseScenario(id)
		})
	}
	return &service{
		catalog:  params.Catalog,
		store:    params.Store,
		registry: params.Registry,
		events:   params.Events,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

func (s *service) CreateScenario(ctx context.Context, name string) (*BoardDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Scenario " + s.now().Format(defaultNameLayout)
	}

	var (
		manufacturers []allocation.Manufacturer
		items         []allocation.LineItem
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		manufacturers, err = s.catalog.ListManufacturers(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		items, err = s.catalog.ListLineItemsForNewScenario(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	model := allocation.NewModel()
	if err := model.Initialize(items, manufacturers); err != nil {
		return nil, err
	}

	id, err := s.store.CreateScenario(ctx, name, items)
	if err != nil {
		return nil, err
	}

	ws := s.register(&workspace{
		id:        id,
		name:      name,
		createdAt: s.now().UTC(),
		model:     model,
		phase:     enums.ScenarioPhaseBuilding,
	})

	ctx = s.logg.WithScenarioID(ctx, id.String())
	s.logg.Info(s.logg.WithField(ctx, "line_items", len(items)), "scenario created")
	return s.boardOf(ws.id)
}

// OpenScenario loads a persisted scenario into a workspace by replaying its
// stored assignments. An already open scenario is returned as is.
func (s *service) OpenScenario(ctx context.Context, id uuid.UUID) (*BoardDTO, error) {
	if s.registry.has(id) {
		return s.boardOf(id)
	}

	var (
		scenario      *models.DealScenario
		manufacturers []allocation.Manufacturer
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		scenario, err = s.store.GetScenario(groupCtx, id)
		return err
	})
	group.Go(func() error {
		var err error
		manufacturers, err = s.catalog.ListManufacturers(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	items := make([]allocation.LineItem, 0, len(scenario.Details))
	assignments := make([]allocation.Assignment, 0, len(scenario.Details))
	for _, detail := range scenario.Details {
		items = append(items, lineItemFromDetail(detail))
		assignments = append(assignments, allocation.Assignment{LineItemID: detail.ID, ManufacturerID: detail.ManufacturerID})
	}

	model := allocation.NewModel()
	if err := model.Initialize(items, manufacturers); err != nil {
		return nil, err
	}
	if err := model.Apply(assignments); err != nil {
		return nil, err
	}

	phase := enums.ScenarioPhaseBuilding
	if scenario.SavedAt != nil {
		phase = enums.ScenarioPhasePersisted
	}
	ws := s.register(&workspace{
		id:        scenario.ID,
		name:      scenario.Name,
		createdAt: scenario.CreatedAt,
		model:     model,
		phase:     phase,
		savedAt:   scenario.SavedAt,
	})

	s.logg.Info(s.logg.WithScenarioID(ctx, id.String()), "scenario opened")
	return s.boardOf(ws.id)
}

func (s *service) Board(_ context.Context, id uuid.UUID) (*BoardDTO, error) {
	return s.boardOf(id)
}

func (s *service) Move(ctx context.Context, id uuid.UUID, input MoveInput) (*BoardDTO, error) {
	ws, release, err := s.registry.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := ws.model.Move(input.LineItemID, input.Source, input.Target); err != nil {
		s.metrics.IncMove(moveOutcome(err))
		fields := map[string]any{
			"scenario_id":  id.String(),
			"line_item_id": input.LineItemID.String(),
			"source":       input.Source.String(),
			"target":       input.Target.String(),
		}
		s.logg.Debug(s.logg.WithFields(ctx, fields), "move rejected")
		return nil, err
	}
	if input.Source == input.Target {
		s.metrics.IncMove(metrics.OutcomeNoop)
	} else {
		s.metrics.IncMove(metrics.OutcomeOK)
	}
	return boardFromWorkspace(ws)
}

func (s *service) Reset(_ context.Context, id uuid.UUID) (*BoardDTO, error) {
	ws, release, err := s.registry.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := ws.model.ResetAll(); err != nil {
		return nil, err
	}
	s.metrics.IncReset()
	return boardFromWorkspace(ws)
}

// Save persists the current snapshot. The workspace lock is held for the
// whole write so the stored snapshot matches the model; a failed write
// leaves the model as it was.
func (s *service) Save(ctx context.Context, id uuid.UUID) (*SaveResult, error) {
	ws, release, err := s.registry.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	snapshot, err := ws.model.Snapshot()
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithScenarioID(ctx, id.String())
	start := time.Now()
	savedAt, err := s.store.PersistAllocations(ctx, id, snapshot)
	if err != nil {
		s.metrics.ObserveSave(metrics.OutcomeError, time.Since(start))
		s.logg.Warn(ctx, "scenario save failed")
		return nil, err
	}
	s.metrics.ObserveSave(metrics.OutcomeOK, time.Since(start))

	ws.savedAt = &savedAt
	ws.phase = enums.ScenarioPhasePersisted
	s.logg.Info(s.logg.WithField(ctx, "allocations", len(snapshot)), "scenario saved")

	return &SaveResult{ScenarioID: id, SavedAt: savedAt, Allocations: snapshot}, nil
}

// Close discards the workspace. Unsaved moves are lost.
func (s *service) Close(ctx context.Context, id uuid.UUID) error {
	if !s.registry.remove(id) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "scenario is not open").WithDetails(map[string]any{"scenario_id": id})
	}
	s.logg.Info(s.logg.WithScenarioID(ctx, id.String()), "workspace closed")
	return nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ScenarioPage, error) {
	rows, next, err := s.store.ListScenarios(ctx, params)
	if err != nil {
		return nil, err
	}
	page := &ScenarioPage{Scenarios: make([]ScenarioSummaryDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		page.Scenarios = append(page.Scenarios, summaryFromModel(row, s.registry.has(row.ID)))
	}
	return page, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ScenarioDTO, error) {
	row, err := s.store.GetScenario(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &ScenarioDTO{
		ScenarioSummaryDTO: summaryFromModel(*row, s.registry.has(row.ID)),
		Details:            make([]DetailDTO, 0, len(row.Details)),
	}
	for _, detail := range row.Details {
		out.Details = append(out.Details, detailFromModel(detail))
	}
	return out, nil
}

// BucketDetails reads one bucket of the persisted scenario, which may lag
// the open workspace until the next save.
func (s *service) BucketDetails(ctx context.Context, id uuid.UUID, bucket allocation.BucketID) ([]DetailDTO, error) {
	var manufacturerID *int64
	if bucket != allocation.Unassigned {
		parsed, ok := bucket.ManufacturerID()
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid bucket id").WithDetails(map[string]any{"bucket": bucket})
		}
		manufacturerID = &parsed
	}
	rows, err := s.store.ListDetailsByBucket(ctx, id, manufacturerID)
	if err != nil {
		return nil, err
	}
	out := make([]DetailDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, detailFromModel(row))
	}
	return out, nil
}

// register subscribes the event forwarder and adds ws to the registry.
func (s *service) register(ws *workspace) *workspace {
	if s.events != nil {
		scenarioID := ws.id
		eventCtx := s.logg.WithScenarioID(context.Background(), scenarioID.String())
		ws.unsubscribe = ws.model.Subscribe(func(change allocation.Change) {
			s.events.Publish(eventCtx, events.FromChange(scenarioID, change, s.now()))
		})
	}
	return s.registry.put(ws)
}

func (s *service) boardOf(id uuid.UUID) (*BoardDTO, error) {
	ws, release, err := s.registry.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()
	return boardFromWorkspace(ws)
}

func moveOutcome(err error) string {
	switch {
	case pkgerrors.HasCode(err, pkgerrors.CodeConflict):
		return metrics.OutcomeConflict
	case pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

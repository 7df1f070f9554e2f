package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/dataset"
	"dashgen-backend/internal/dto"
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/render"
	"dashgen-backend/internal/repository"
	"dashgen-backend/internal/session"
	"dashgen-backend/internal/store"
)

// DashboardService drives the dashboard lifecycle of one session: upload,
// generate, open, cross-filter and reset.
type DashboardService interface {
	CreateSession(ctx context.Context, owner string) (*dto.CreateSessionResponse, error)
	EndSession(ctx context.Context, sessionID string) error
	Snapshot(ctx context.Context, sessionID string) (*session.Snapshot, error)
	Upload(ctx context.Context, sessionID, filename string, r io.Reader) (*dto.UploadResponse, error)
	Generate(ctx context.Context, sessionID, instruction string) (*dto.DashboardView, error)
	ListHistory(ctx context.Context, sessionID string) ([]model.HistoryItem, error)
	Open(ctx context.Context, sessionID, dashboardID string) (*dto.DashboardView, error)
	DeleteDashboard(ctx context.Context, sessionID, dashboardID string) (bool, error)
	Reset(ctx context.Context, sessionID string) (*session.Snapshot, error)
	ToggleFilter(ctx context.Context, sessionID, column, value string) (*dto.FilterResponse, error)
	Click(ctx context.Context, sessionID, componentID, name string) (*dto.FilterResponse, error)
	ExportPNG(ctx context.Context, sessionID, componentID string, w io.Writer) error
}

type dashboardService struct {
	sessions store.SessionStore
	uploads  UploadService
	loader   dataset.Loader
	planner  Planner
	history  repository.DashboardRepository
	renderer *render.Renderer
	exporter *render.PNGExporter
	activity ActivityPublisher
	now      func() time.Time
}

func NewDashboardService(
	sessions store.SessionStore,
	uploads UploadService,
	loader dataset.Loader,
	planner Planner,
	history repository.DashboardRepository,
	renderer *render.Renderer,
	exporter *render.PNGExporter,
	activity ActivityPublisher,
) DashboardService {
	return &dashboardService{
		sessions: sessions,
		uploads:  uploads,
		loader:   loader,
		planner:  planner,
		history:  history,
		renderer: renderer,
		exporter: exporter,
		activity: activity,
		now:      time.Now,
	}
}

func (s *dashboardService) CreateSession(ctx context.Context, owner string) (*dto.CreateSessionResponse, error) {
	sess, err := s.sessions.Create(ctx, owner)
	if err != nil {
		return nil, err
	}
	log.Info().Str("session_id", sess.ID).Str("owner", sess.Owner).Msg("Session created")
	return &dto.CreateSessionResponse{SessionID: sess.ID, Owner: sess.Owner, State: sess.State()}, nil
}

func (s *dashboardService) EndSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	log.Info().Str("session_id", sessionID).Msg("Session ended")
	return nil
}

func (s *dashboardService) Snapshot(ctx context.Context, sessionID string) (*session.Snapshot, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *dashboardService) Upload(ctx context.Context, sessionID, filename string, r io.Reader) (*dto.UploadResponse, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp, err := s.uploads.Upload(ctx, sess.Owner, filename, r)
	event := model.ActivityEvent{SessionID: sess.ID, Owner: sess.Owner, Action: model.ActionUpload, Detail: filename}
	if err != nil {
		s.publishFailure(ctx, event, err)
		return nil, err
	}
	sess.SetUpload(session.Upload{FilePath: resp.FilePath, Summary: resp.Summary, ColTypes: resp.ColTypes})
	s.activity.Publish(ctx, event)
	return resp, nil
}

func (s *dashboardService) Generate(ctx context.Context, sessionID, instruction string) (*dto.DashboardView, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ticket, err := sess.BeginGenerate()
	if err != nil {
		return nil, err
	}
	log.Info().Str("session_id", sess.ID).Uint64("seq", ticket.Seq).Str("instruction", instruction).Msg("Generating dashboard")
	event := model.ActivityEvent{SessionID: sess.ID, Owner: sess.Owner, Action: model.ActionGenerate, Detail: instruction}

	abort := func(message string, cause error) error {
		if err := sess.FailGenerate(ticket); err != nil {
			log.Debug().Err(err).Str("session_id", sess.ID).Msg("Generation failure arrived after a newer request")
		}
		err := fail(GenerationFailure, message, cause)
		log.Error().Err(err).Str("session_id", sess.ID).Msg("Dashboard generation failed")
		s.publishFailure(ctx, event, err)
		return err
	}

	table, err := s.loader.Load(ctx, ticket.Upload.FilePath)
	if err != nil {
		return nil, abort("could not read the uploaded file", err)
	}
	cfg, err := s.planner.Plan(ctx, PlanRequest{
		Summary:     ticket.Upload.Summary,
		Instruction: instruction,
		Columns:     table.Columns,
		ColTypes:    ticket.Upload.ColTypes,
		Table:       table,
	})
	if err != nil {
		return nil, abort("the planner could not design a dashboard", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, abort("the planner returned an invalid dashboard", err)
	}
	views, err := s.renderer.RenderAll(cfg, table)
	if err != nil {
		return nil, abort("could not render the dashboard", err)
	}

	rec := &model.DashboardRecord{
		ID:        uuid.NewString(),
		Owner:     sess.Owner,
		CreatedAt: s.now().UTC(),
		Title:     cfg.Title,
		Config:    *cfg,
		FilePath:  ticket.Upload.FilePath,
	}
	if err := s.history.Save(ctx, rec); err != nil {
		return nil, abort("could not save the dashboard", err)
	}

	d := &session.Dashboard{ID: rec.ID, Title: rec.Title, FilePath: rec.FilePath, Config: rec.Config, Table: table}
	if err := sess.CompleteLoad(ticket, d, views); err != nil {
		return nil, err
	}
	event.DashboardID = rec.ID
	s.activity.Publish(ctx, event)
	log.Info().Str("session_id", sess.ID).Str("dashboard_id", rec.ID).Int("components", len(views)).Msg("Dashboard generated")
	return s.dashboardView(sess, ticket.Seq), nil
}

func (s *dashboardService) ListHistory(ctx context.Context, sessionID string) ([]model.HistoryItem, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.history.List(ctx, sess.Owner)
}

func (s *dashboardService) Open(ctx context.Context, sessionID, dashboardID string) (*dto.DashboardView, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ticket := sess.BeginLoad()
	log.Info().Str("session_id", sess.ID).Str("dashboard_id", dashboardID).Uint64("seq", ticket.Seq).Msg("Opening dashboard")
	event := model.ActivityEvent{SessionID: sess.ID, Owner: sess.Owner, Action: model.ActionOpen, DashboardID: dashboardID}

	abort := func(message string, cause error) error {
		if err := sess.FailLoad(ticket); err != nil {
			log.Debug().Err(err).Str("session_id", sess.ID).Msg("Load failure arrived after a newer request")
		}
		err := fail(LoadFailure, message, cause)
		log.Error().Err(err).Str("dashboard_id", dashboardID).Msg("Failed to open dashboard")
		s.publishFailure(ctx, event, err)
		return err
	}

	rec, err := s.history.Get(ctx, sess.Owner, dashboardID)
	if err != nil {
		return nil, abort("could not load dashboard", err)
	}
	table, err := loadRecordTable(ctx, s.loader, rec)
	if err != nil {
		return nil, abort("could not read the dashboard data", err)
	}
	cfg := rec.Config
	if err := cfg.Validate(); err != nil {
		return nil, abort("stored dashboard is invalid", err)
	}
	views, err := s.renderer.RenderAll(&cfg, table)
	if err != nil {
		return nil, abort("could not render the dashboard", err)
	}

	d := &session.Dashboard{ID: rec.ID, Title: rec.Title, FilePath: rec.FilePath, Config: cfg, Table: table}
	if err := sess.CompleteLoad(ticket, d, views); err != nil {
		return nil, err
	}
	s.activity.Publish(ctx, event)
	return s.dashboardView(sess, ticket.Seq), nil
}

func (s *dashboardService) DeleteDashboard(ctx context.Context, sessionID, dashboardID string) (bool, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	event := model.ActivityEvent{SessionID: sess.ID, Owner: sess.Owner, Action: model.ActionDelete, DashboardID: dashboardID}
	if err := s.history.Delete(ctx, sess.Owner, dashboardID); err != nil {
		err = fail(DeleteFailure, "could not delete dashboard", err)
		s.publishFailure(ctx, event, err)
		return false, err
	}
	reset := sess.DashboardDeleted(dashboardID)
	s.activity.Publish(ctx, event)
	log.Info().Str("session_id", sess.ID).Str("dashboard_id", dashboardID).Bool("session_reset", reset).Msg("Dashboard deleted")
	return reset, nil
}

func (s *dashboardService) Reset(ctx context.Context, sessionID string) (*session.Snapshot, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Reset()
	s.activity.Publish(ctx, model.ActivityEvent{SessionID: sess.ID, Owner: sess.Owner, Action: model.ActionReset})
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *dashboardService) ToggleFilter(ctx context.Context, sessionID, column, value string) (*dto.FilterResponse, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, sess, "", column, value)
}

func (s *dashboardService) Click(ctx context.Context, sessionID, componentID, name string) (*dto.FilterResponse, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	column, value, err := sess.ResolveClick(componentID, name)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, sess, componentID, column, value)
}

func (s *dashboardService) toggle(ctx context.Context, sess *session.Session, componentID, column, value string) (*dto.FilterResponse, error) {
	ticket, err := sess.BeginFilter(column, value)
	if err != nil {
		return nil, err
	}
	d := ticket.Dashboard
	event := model.ActivityEvent{
		SessionID:   sess.ID,
		Owner:       sess.Owner,
		Action:      model.ActionFilter,
		DashboardID: d.ID,
		ComponentID: componentID,
		Filters:     ticket.Filters.Map(),
		Detail:      column + "=" + value,
	}
	log.Info().Str("session_id", sess.ID).Str("column", column).Str("value", value).Uint64("seq", ticket.Seq).Msg("Toggling filter")

	filtered := d.Table.WithRows(ticket.Filters.Apply(d.Table.Rows))
	views, err := s.renderer.RenderAll(&d.Config, filtered)
	if err != nil {
		err = fail(FilterFailure, "could not recompute the dashboard", err)
		s.publishFailure(ctx, event, err)
		return nil, err
	}
	patches, err := sess.CommitFilter(ticket, views)
	if err != nil {
		if errors.Is(err, session.ErrStaleResponse) {
			log.Debug().Str("session_id", sess.ID).Uint64("seq", ticket.Seq).Msg("Dropping stale filter response")
			return nil, err
		}
		err = fail(FilterFailure, "could not update components", err)
		s.publishFailure(ctx, event, err)
		return nil, err
	}
	s.activity.Publish(ctx, event)

	state := session.StateRendered
	if !ticket.Filters.IsEmpty() {
		state = session.StateRenderedFiltered
	}
	return &dto.FilterResponse{
		SessionID: sess.ID,
		State:     state,
		Seq:       ticket.Seq,
		Column:    column,
		Value:     value,
		RowCount:  filtered.Len(),
		Filters:   ticket.Filters,
		Tags:      ticket.Filters.Tags(),
		Patches:   patches,
	}, nil
}

func (s *dashboardService) ExportPNG(ctx context.Context, sessionID, componentID string, w io.Writer) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	view, index, ok := sess.ComponentView(componentID)
	if !ok {
		return render.ErrUnknownComponent
	}
	return s.exporter.Export(w, view, index)
}

func (s *dashboardService) dashboardView(sess *session.Session, seq uint64) *dto.DashboardView {
	snap := sess.Snapshot()
	return &dto.DashboardView{
		SessionID:   snap.ID,
		State:       snap.State,
		DashboardID: snap.DashboardID,
		Title:       snap.Title,
		Seq:         seq,
		RowCount:    snap.RowCount,
		Components:  snap.Components,
		Filters:     snap.Filters,
		Tags:        snap.Tags,
	}
}

func (s *dashboardService) publishFailure(ctx context.Context, event model.ActivityEvent, err error) {
	event.Outcome = model.OutcomeError
	event.Detail = err.Error()
	s.activity.Publish(ctx, event)
}

// loadRecordTable reads the dataset of rec. A dataset that is gone from disk
// opens as an empty table.
func loadRecordTable(ctx context.Context, loader dataset.Loader, rec *model.DashboardRecord) (*model.Table, error) {
	table, err := loader.Load(ctx, rec.FilePath)
	if errors.Is(err, dataset.ErrDatasetMissing) {
		log.Warn().Str("dashboard_id", rec.ID).Str("file", rec.FilePath).Msg("Dataset missing, opening dashboard without rows")
		return &model.Table{Types: map[string]string{}}, nil
	}
	return table, err
}

// Package session holds the per-user dashboard controller state: the uploaded
// file, the open dashboard, its filter context and the mounted render board.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"dashgen-backend/internal/filter"
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/render"
)

type State string

const (
	StateEmpty            State = "empty"
	StateReady            State = "ready"
	StateLoading          State = "loading"
	StateRendered         State = "rendered"
	StateRenderedFiltered State = "rendered_filtered"
)

var (
	ErrInvalidTransition = errors.New("operation not allowed in current state")
	ErrStaleResponse     = errors.New("response superseded by a newer request")
	ErrNoDashboard       = errors.New("no dashboard is open")
)

// Upload is the processed file a session generates dashboards from.
type Upload struct {
	FilePath string            `json:"file_path"`
	Summary  string            `json:"summary"`
	ColTypes map[string]string `json:"col_types"`
}

// Dashboard is the dashboard currently displayed by a session. Table holds
// the unfiltered rows and is shared read-only with the dataset cache.
type Dashboard struct {
	ID       string
	Title    string
	FilePath string
	Config   model.DashboardConfig
	Table    *model.Table
}

// LoadTicket identifies one generate or open request.
type LoadTicket struct {
	Seq    uint64
	Upload *Upload
}

// FilterTicket carries everything needed to recompute the open dashboard
// under Filters without holding the session lock. A ticket only commits
// while Dashboard is still the open dashboard.
type FilterTicket struct {
	Seq       uint64
	Filters   filter.Context
	Dashboard *Dashboard
}

type Session struct {
	ID        string
	Owner     string
	CreatedAt time.Time

	mu        sync.Mutex
	lastSeen  time.Time
	state     State
	restore   State
	upload    *Upload
	dashboard *Dashboard
	filters   filter.Context
	board     *render.Board
	loadSeq   uint64
	filterSeq uint64
}

func New(id, owner string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Owner:     owner,
		CreatedAt: now,
		lastSeen:  now,
		state:     StateEmpty,
		board:     render.NewBoard(),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SetUpload records a processed file. Any open dashboard is closed and any
// in-flight load is superseded.
func (s *Session) SetUpload(u Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.upload = &u
	s.state = StateReady
}

// BeginGenerate moves a session holding an upload into Loading.
func (s *Session) BeginGenerate() (LoadTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upload == nil {
		return LoadTicket{}, fmt.Errorf("%w: generate needs an uploaded file (state %s)", ErrInvalidTransition, s.state)
	}
	if s.state == StateLoading {
		return LoadTicket{}, fmt.Errorf("%w: a load is already in flight", ErrInvalidTransition)
	}
	u := *s.upload
	s.restore = StateReady
	s.state = StateLoading
	s.loadSeq++
	return LoadTicket{Seq: s.loadSeq, Upload: &u}, nil
}

// FailGenerate returns the session to Ready, keeping the upload.
func (s *Session) FailGenerate(t LoadTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Seq != s.loadSeq {
		return ErrStaleResponse
	}
	s.dashboard = nil
	s.filters = filter.Context{}
	s.board.Clear()
	s.state = StateReady
	return nil
}

// BeginLoad starts opening a history entry from any state. Filters already
// in flight for the open dashboard may still commit until the load
// completes.
func (s *Session) BeginLoad() LoadTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		s.restore = s.state
	}
	s.state = StateLoading
	s.loadSeq++
	return LoadTicket{Seq: s.loadSeq}
}

// FailLoad leaves the previous view and its filter context in place.
func (s *Session) FailLoad(t LoadTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Seq != s.loadSeq {
		return ErrStaleResponse
	}
	s.state = s.restore
	return nil
}

// CompleteLoad displays d with views and an empty filter context.
func (s *Session) CompleteLoad(t LoadTicket, d *Dashboard, views []render.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Seq != s.loadSeq || s.state != StateLoading {
		return ErrStaleResponse
	}
	s.dashboard = d
	s.filters = filter.Context{}
	s.board.Mount(views)
	s.state = StateRendered
	s.filterSeq++
	return nil
}

// Reset returns to Empty, clearing every field together.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.upload = nil
	s.dashboard = nil
	s.filters = filter.Context{}
	s.board.Clear()
	s.state = StateEmpty
	s.restore = StateEmpty
	s.loadSeq++
	s.filterSeq++
}

// DashboardDeleted resets the session if id is the open dashboard.
func (s *Session) DashboardDeleted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dashboard == nil || s.dashboard.ID != id {
		return false
	}
	s.resetLocked()
	return true
}

// BeginFilter toggles column=value and issues a new filter sequence number.
// The toggle stays applied even if recomputation later fails.
func (s *Session) BeginFilter(column, value string) (FilterTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dashboard == nil || (s.state != StateRendered && s.state != StateRenderedFiltered) {
		return FilterTicket{}, fmt.Errorf("%w: %v", ErrInvalidTransition, ErrNoDashboard)
	}
	s.filters = s.filters.Toggle(column, value)
	if s.filters.IsEmpty() {
		s.state = StateRendered
	} else {
		s.state = StateRenderedFiltered
	}
	s.filterSeq++
	return FilterTicket{
		Seq:       s.filterSeq,
		Filters:   s.filters,
		Dashboard: s.dashboard,
	}, nil
}

// CommitFilter patches the mounted instances with views computed for t.
func (s *Session) CommitFilter(t FilterTicket, views []render.View) ([]render.Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Seq != s.filterSeq || t.Dashboard == nil || t.Dashboard != s.dashboard {
		return nil, ErrStaleResponse
	}
	patches := make([]render.Patch, 0, len(views))
	for _, v := range views {
		p, err := s.board.Patch(v)
		if err != nil {
			return nil, err
		}
		patches = append(patches, p)
	}
	return patches, nil
}

// ResolveClick maps a category click on a mounted chart to its filter pair.
func (s *Session) ResolveClick(componentID, name string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dashboard == nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidTransition, ErrNoDashboard)
	}
	return s.board.ResolveClick(componentID, name)
}

// ComponentView returns the mounted view of componentID and its position.
func (s *Session) ComponentView(componentID string) (render.View, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.board.Views() {
		if v.ComponentID == componentID {
			return v, i, true
		}
	}
	return render.View{}, 0, false
}

// Snapshot is a consistent copy of the session for display.
type Snapshot struct {
	ID          string         `json:"session_id"`
	Owner       string         `json:"owner"`
	State       State          `json:"state"`
	Upload      *Upload        `json:"upload,omitempty"`
	DashboardID string         `json:"dashboard_id,omitempty"`
	Title       string         `json:"title,omitempty"`
	RowCount    int            `json:"row_count"`
	Filters     filter.Context `json:"filters"`
	Tags        []filter.Tag   `json:"tags"`
	FilterSeq   uint64         `json:"filter_seq"`
	LoadSeq     uint64         `json:"load_seq"`
	Components  []render.View  `json:"components"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:         s.ID,
		Owner:      s.Owner,
		State:      s.state,
		Filters:    s.filters,
		Tags:       s.filters.Tags(),
		FilterSeq:  s.filterSeq,
		LoadSeq:    s.loadSeq,
		Components: s.board.Views(),
	}
	if s.upload != nil {
		u := *s.upload
		snap.Upload = &u
	}
	if s.dashboard != nil {
		snap.DashboardID = s.dashboard.ID
		snap.Title = s.dashboard.Title
		snap.RowCount = s.dashboard.Table.Len()
	}
	return snap
}

// Files returns the upload paths this session still needs on disk.
func (s *Session) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var files []string
	if s.upload != nil {
		files = append(files, s.upload.FilePath)
	}
	if s.dashboard != nil && s.dashboard.FilePath != "" {
		files = append(files, s.dashboard.FilePath)
	}
	return files
}

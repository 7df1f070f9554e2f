package render

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"dashgen-backend/internal/aggregator"
	"dashgen-backend/internal/model"
)

var (
	ErrUnknownComponent = errors.New("component is not mounted")
	ErrNotClickable     = errors.New("component does not emit category clicks")
)

type PatchOp string

const (
	// PatchUpdate swaps the data of a live instance.
	PatchUpdate PatchOp = "update"
	// PatchReplace tears the instance down and mounts View instead.
	PatchReplace PatchOp = "replace"
)

type Patch struct {
	ComponentID  string            `json:"component_id"`
	InstanceID   string            `json:"instance_id"`
	Op           PatchOp           `json:"op"`
	Revision     int               `json:"revision"`
	Empty        bool              `json:"empty"`
	EmptyMessage string            `json:"empty_message,omitempty"`
	Source       [][]any           `json:"source,omitempty"`
	Series       aggregator.Series `json:"series,omitempty"`
	Value        any               `json:"value,omitempty"`
	Display      string            `json:"display,omitempty"`
	View         *View             `json:"view,omitempty"`
}

// Board tracks the mounted instance of every component of one dashboard,
// addressed by component id. It is not safe for concurrent use; the owning
// session serializes access.
type Board struct {
	order []string
	views map[string]*View
}

func NewBoard() *Board {
	return &Board{views: make(map[string]*View)}
}

// Mount discards every instance and mounts views as fresh instances.
func (b *Board) Mount(views []View) {
	b.order = make([]string, 0, len(views))
	b.views = make(map[string]*View, len(views))
	for _, v := range views {
		v := v
		v.InstanceID = uuid.NewString()
		v.Revision = 1
		b.order = append(b.order, v.ComponentID)
		b.views[v.ComponentID] = &v
	}
}

func (b *Board) Clear() {
	b.order = nil
	b.views = make(map[string]*View)
}

// Views returns copies of the mounted views in dashboard order.
func (b *Board) Views() []View {
	out := make([]View, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.views[id])
	}
	return out
}

func (b *Board) View(componentID string) (View, bool) {
	v, ok := b.views[componentID]
	if !ok {
		return View{}, false
	}
	return *v, true
}

// Patch applies next to the mounted instance of the same component. Charts
// and KPIs keep their instance and receive new data; maps are rebuilt under
// a new instance id.
func (b *Board) Patch(next View) (Patch, error) {
	cur, ok := b.views[next.ComponentID]
	if !ok {
		return Patch{}, fmt.Errorf("%w: %q", ErrUnknownComponent, next.ComponentID)
	}

	switch cur.Type {
	case model.ComponentChart:
		if next.Chart == nil || cur.Chart == nil {
			return Patch{}, fmt.Errorf("%w: chart %q", ErrMissingConfig, next.ComponentID)
		}
		// copy on write: earlier Views() results share these pointers
		chart := *cur.Chart
		option := *cur.Chart.Option
		option.Dataset.Source = next.Chart.Option.Dataset.Source
		chart.Series = next.Chart.Series
		chart.Option = &option
		cur.Chart = &chart
		cur.Revision++
		cur.Empty, cur.EmptyMessage = next.Empty, next.EmptyMessage
		return Patch{
			ComponentID:  cur.ComponentID,
			InstanceID:   cur.InstanceID,
			Op:           PatchUpdate,
			Revision:     cur.Revision,
			Empty:        cur.Empty,
			EmptyMessage: cur.EmptyMessage,
			Source:       cur.Chart.Option.Dataset.Source,
			Series:       cur.Chart.Series,
		}, nil
	case model.ComponentKPI:
		if next.KPI == nil {
			return Patch{}, fmt.Errorf("%w: kpi %q", ErrMissingConfig, next.ComponentID)
		}
		cur.Revision++
		cur.KPI = &KPIView{Value: next.KPI.Value, Display: next.KPI.Display}
		return Patch{
			ComponentID: cur.ComponentID,
			InstanceID:  cur.InstanceID,
			Op:          PatchUpdate,
			Revision:    cur.Revision,
			Value:       cur.KPI.Value,
			Display:     cur.KPI.Display,
		}, nil
	case model.ComponentMap:
		rebuilt := next
		rebuilt.InstanceID = uuid.NewString()
		rebuilt.Revision = cur.Revision + 1
		b.views[next.ComponentID] = &rebuilt
		view := rebuilt
		return Patch{
			ComponentID:  rebuilt.ComponentID,
			InstanceID:   rebuilt.InstanceID,
			Op:           PatchReplace,
			Revision:     rebuilt.Revision,
			Empty:        rebuilt.Empty,
			EmptyMessage: rebuilt.EmptyMessage,
			View:         &view,
		}, nil
	default:
		return Patch{}, fmt.Errorf("%w: %q", ErrUnknownComponentType, cur.Type)
	}
}

// ResolveClick maps a click on category name of a chart to the
// (column, value) pair it filters on.
func (b *Board) ResolveClick(componentID, name string) (string, string, error) {
	v, ok := b.views[componentID]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownComponent, componentID)
	}
	if v.Type != model.ComponentChart || v.Chart == nil {
		return "", "", fmt.Errorf("%w: %q", ErrNotClickable, componentID)
	}
	return v.Chart.ClickColumn, name, nil
}

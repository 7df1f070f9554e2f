package render

import "dashgen-backend/internal/model"

// Palette is shared by pie slices and the per-chart theme colors.
var Palette = []string{
	"#6366f1", "#10b981", "#f59e0b", "#ec4899",
	"#3b82f6", "#8b5cf6", "#ef4444", "#06b6d4",
}

// ThemeColor picks the single color of a bar or line chart from its
// position in the dashboard.
func ThemeColor(index int) string {
	if index < 0 {
		index = -index
	}
	return Palette[index%len(Palette)]
}

type Size string

const (
	SizeCompact Size = "compact"
	SizeRegular Size = "regular"
	SizeWide    Size = "wide"
)

type Layout struct {
	ColSpan int  `json:"col_span"`
	Size    Size `json:"size"`
}

// LayoutFor gives maps and single-component dashboards a double-width cell.
func LayoutFor(comp model.Component, total int) Layout {
	if total == 1 || comp.Type == model.ComponentMap {
		return Layout{ColSpan: 2, Size: SizeWide}
	}
	if comp.Type == model.ComponentKPI {
		return Layout{ColSpan: 1, Size: SizeCompact}
	}
	return Layout{ColSpan: 1, Size: SizeRegular}
}

package render

import (
	"encoding/json"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type compactUnit struct {
	scale  float64
	suffix string
}

// Short compact units per base language. Languages without a table use the
// English units with their own separators.
var compactUnits = map[string][]compactUnit{
	"en": {{1, ""}, {1e3, "K"}, {1e6, "M"}, {1e9, "B"}, {1e12, "T"}},
	"de": {{1, ""}, {1e6, " Mio."}, {1e9, " Mrd."}, {1e12, " Bio."}},
	"es": {{1, ""}, {1e3, " mil"}, {1e6, " M"}, {1e9, " mil M"}, {1e12, " B"}},
	"fr": {{1, ""}, {1e3, " k"}, {1e6, " M"}, {1e9, " Md"}, {1e12, " Bn"}},
	"pt": {{1, ""}, {1e3, " mil"}, {1e6, " mi"}, {1e9, " bi"}, {1e12, " tri"}},
}

func unitsFor(tag language.Tag) []compactUnit {
	base, _ := tag.Base()
	if units, ok := compactUnits[base.String()]; ok {
		return units
	}
	return compactUnits["en"]
}

// FormatCompact renders v in the short compact notation of locale (1.23M,
// 1,23 Mio.) with at most two fraction digits.
func FormatCompact(v float64, locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	units := unitsFor(tag)

	unit := 0
	for unit+1 < len(units) && math.Abs(v) >= units[unit+1].scale {
		unit++
	}
	scaled := v / units[unit].scale
	// 999_999 rounds to 1000K; promote it to 1M.
	if unit+1 < len(units) && math.Abs(math.Round(scaled*100)/100)*units[unit].scale >= units[unit+1].scale {
		unit++
		scaled = v / units[unit].scale
	}
	return p.Sprintf("%v", number.Decimal(scaled, number.MaxFractionDigits(2))) + units[unit].suffix
}

// FormatValue formats numbers compactly and passes anything else through.
func FormatValue(v any, locale string) string {
	switch t := v.(type) {
	case nil:
		return "N/A"
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "N/A"
		}
		return FormatCompact(t, locale)
	case float32:
		return FormatCompact(float64(t), locale)
	case int:
		return FormatCompact(float64(t), locale)
	case int32:
		return FormatCompact(float64(t), locale)
	case int64:
		return FormatCompact(float64(t), locale)
	case uint64:
		return FormatCompact(float64(t), locale)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return FormatCompact(f, locale)
	case string:
		return t
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

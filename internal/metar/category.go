package metar

// FlightCategory is the ceiling/visibility classification used on
// aviation weather charts.
type FlightCategory string

const (
	CategoryVFR     FlightCategory = "VFR"
	CategoryMVFR    FlightCategory = "MVFR"
	CategoryIFR     FlightCategory = "IFR"
	CategoryLIFR    FlightCategory = "LIFR"
	CategoryUnknown FlightCategory = "UNKN"
)

// Categorize derives the flight category from ceiling and visibility.
// The worse of the two controls. With neither a ceiling nor a visibility
// decoded the category is unknown.
func Categorize(m *DecodedMetar) FlightCategory {
	ceiling, hasCeiling := m.Ceiling()
	hasVis := m.Visibility != nil
	if !hasCeiling && !hasVis {
		return CategoryUnknown
	}

	vis := 99.0
	if hasVis {
		vis = m.Visibility.Miles()
	}
	if !hasCeiling {
		ceiling = 99999
	}

	switch {
	case ceiling < 500 || vis < 1:
		return CategoryLIFR
	case ceiling < 1000 || vis < 3:
		return CategoryIFR
	case ceiling <= 3000 || vis <= 5:
		return CategoryMVFR
	default:
		return CategoryVFR
	}
}

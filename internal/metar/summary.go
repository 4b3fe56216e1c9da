package metar

import (
	"fmt"
	"strings"
)

// Summarize renders a decoded report as one plain-English sentence built
// from whichever fields are present: sky condition, temperature, wind and
// present weather, in that order. A report with none of those yields a
// fixed incomplete-data sentence.
func Summarize(m *DecodedMetar) string {
	clauses := make([]string, 0, 4)

	if sky := skyClause(m.Clouds); sky != "" {
		clauses = append(clauses, sky)
	}
	if m.Temperature != nil {
		clauses = append(clauses, fmt.Sprintf("temperature of %d°F (%d°C)",
			CelsiusToFahrenheit(m.Temperature.TempC), m.Temperature.TempC))
	}
	if m.Wind != nil {
		clauses = append(clauses, windClause(m.Wind))
	}
	for _, w := range m.Weather {
		clauses = append(clauses, w.Description())
	}

	if len(clauses) == 0 {
		return "Weather data incomplete."
	}

	sentence := strings.Join(clauses, ", ")
	return strings.ToUpper(sentence[:1]) + sentence[1:] + "."
}

// skyClause picks the single layer that dominates the sky and describes
// it. Denser coverage wins; among equally dense layers the lowest base
// wins, since the lower deck is what an observer sees.
func skyClause(layers []CloudLayer) string {
	if len(layers) == 0 {
		return ""
	}

	best := layers[0]
	for _, l := range layers[1:] {
		rank, bestRank := coverageRank[l.Coverage], coverageRank[best.Coverage]
		if rank > bestRank || (rank == bestRank && l.BaseFt < best.BaseFt) {
			best = l
		}
	}

	desc := skyDescription(best.Coverage)
	if t, ok := cloudTypeDescriptions[best.Type]; ok {
		desc += " with " + t
	}
	return desc
}

// skyDescription maps the dominant coverage to summary wording. Broken
// skies read as "mostly cloudy" in prose even though the field keeps its
// literal "broken clouds" description.
func skyDescription(c Coverage) string {
	switch c {
	case CoverageSkyClear, CoverageClear:
		return "clear skies"
	case CoverageFew, CoverageScattered:
		return "partly cloudy skies"
	case CoverageBroken:
		return "mostly cloudy skies"
	case CoverageOvercast:
		return "overcast skies"
	case CoverageVerticalVis:
		return "obscured skies"
	}
	return c.Description()
}

func windClause(w *Wind) string {
	if w.IsCalm() {
		return "calm winds"
	}

	mph := KnotsToMPH(w.SpeedKt)
	var clause string
	if w.Variable {
		clause = fmt.Sprintf("variable wind at %d mph", mph)
	} else {
		clause = fmt.Sprintf("wind from the %s at %d mph",
			CompassName(DegreesToCompass(w.Direction)), mph)
	}
	if w.GustKt != nil {
		clause += fmt.Sprintf(", gusting to %d mph", KnotsToMPH(*w.GustKt))
	}
	return clause
}

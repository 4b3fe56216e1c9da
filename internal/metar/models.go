package metar

import "fmt"

// Coverage represents a cloud coverage category
type Coverage string

const (
	CoverageSkyClear    Coverage = "SKC"
	CoverageClear       Coverage = "CLR"
	CoverageFew         Coverage = "FEW"
	CoverageScattered   Coverage = "SCT"
	CoverageBroken      Coverage = "BKN"
	CoverageOvercast    Coverage = "OVC"
	CoverageVerticalVis Coverage = "VV"
)

// Description returns the prose form of the coverage category
func (c Coverage) Description() string {
	if d, ok := coverageDescriptions[c]; ok {
		return d
	}
	return string(c)
}

// PressureUnit identifies the unit family an altimeter group was reported in
type PressureUnit string

const (
	UnitInHg PressureUnit = "inHg"
	UnitHPa  PressureUnit = "hPa"
)

// ObservationTime is the day-of-month and UTC time from the report header
type ObservationTime struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// String renders the observation time as "day 25 at 19:51 UTC"
func (t ObservationTime) String() string {
	return fmt.Sprintf("day %d at %02d:%02d UTC", t.Day, t.Hour, t.Minute)
}

// Wind holds a decoded wind group. Direction is in degrees true unless
// Variable is set; speeds are in knots as reported.
type Wind struct {
	Direction int    `json:"direction"`
	Variable  bool   `json:"variable"`
	SpeedKt   int    `json:"speed_kt"`
	GustKt    *int   `json:"gust_kt,omitempty"`
	Raw       string `json:"raw"`
}

// IsCalm reports whether the group encodes calm winds (00000KT)
func (w *Wind) IsCalm() bool {
	return w.SpeedKt == 0
}

// Visibility holds a decoded visibility group as a rational number of
// statute miles, so fractional values like 3/4 lose no precision.
type Visibility struct {
	Whole    int    `json:"whole"`
	Num      int    `json:"num,omitempty"`
	Den      int    `json:"den,omitempty"`
	LessThan bool   `json:"less_than,omitempty"` // M prefix: less than the stated value
	Raw      string `json:"raw"`
}

// Miles returns the visibility as a floating point number of statute miles
func (v *Visibility) Miles() float64 {
	miles := float64(v.Whole)
	if v.Den != 0 {
		miles += float64(v.Num) / float64(v.Den)
	}
	return miles
}

// IsUnlimited reports whether visibility falls in the "10 miles or greater"
// display category
func (v *Visibility) IsUnlimited() bool {
	return !v.LessThan && v.Miles() >= 10
}

// CloudLayer is one decoded sky condition group. Layers appear in a report
// bottom to top and that order is preserved. For VV groups BaseFt is the
// vertical visibility estimate rather than a layer base.
type CloudLayer struct {
	Coverage Coverage `json:"coverage"`
	BaseFt   int      `json:"base_ft"`
	Type     string   `json:"type,omitempty"` // CB or TCU
	Raw      string   `json:"raw"`
}

// Temperature holds a decoded temperature/dewpoint group in Celsius.
// The below-zero flags record whether the source token carried the M
// marker, which distinguishes M00 from 00.
type Temperature struct {
	TempC         int    `json:"temp_c"`
	TempBelowZero bool   `json:"temp_below_zero,omitempty"`
	DewpointC     *int   `json:"dewpoint_c,omitempty"`
	DewBelowZero  bool   `json:"dew_below_zero,omitempty"`
	Inverted      bool   `json:"inverted,omitempty"` // dewpoint above temperature, kept but flagged
	Raw           string `json:"raw"`
}

// Altimeter holds a decoded altimeter group. InHg is the normalized value
// regardless of the reported unit; Unit records what the station sent so
// display code can format QNH stations in hectopascals.
type Altimeter struct {
	InHg float64      `json:"in_hg"`
	Unit PressureUnit `json:"unit"`
	HPa  int          `json:"hpa,omitempty"` // original value when Unit is hPa
	Raw  string       `json:"raw"`
}

// Phenomenon is one decoded weather group: an optional intensity prefix
// that applies to the whole group, zero or more descriptors, and one or
// more phenomenon codes.
type Phenomenon struct {
	Intensity   string   `json:"intensity,omitempty"` // "-", "+" or "VC"
	Descriptors []string `json:"descriptors,omitempty"`
	Codes       []string `json:"codes"`
	Raw         string   `json:"raw"`
}

// Description renders the phenomenon in prose ("light rain", "showers of snow")
func (p Phenomenon) Description() string {
	parts := make([]string, 0, 1+len(p.Descriptors)+len(p.Codes))
	if p.Intensity != "" {
		parts = append(parts, intensityCodes[p.Intensity])
	}
	for _, d := range p.Descriptors {
		parts = append(parts, descriptorCodes[d])
	}
	for _, c := range p.Codes {
		parts = append(parts, phenomenonCodes[c])
	}
	return joinWords(parts)
}

// DecodedMetar is the aggregate result of decoding one report. It is
// constructed once per decode call and never mutated afterwards; the
// decoder holds no state across calls.
type DecodedMetar struct {
	Station     string           `json:"station"`
	Time        *ObservationTime `json:"time,omitempty"`
	Auto        bool             `json:"auto,omitempty"` // AUTO indicator present
	Wind        *Wind            `json:"wind,omitempty"`
	Visibility  *Visibility      `json:"visibility,omitempty"`
	Weather     []Phenomenon     `json:"weather,omitempty"`
	Clouds      []CloudLayer     `json:"clouds,omitempty"`
	Temperature *Temperature     `json:"temperature,omitempty"`
	Altimeter   *Altimeter       `json:"altimeter,omitempty"`
	Remarks     []string         `json:"remarks,omitempty"` // raw tail after RMK, unparsed
	Ignored     []string         `json:"ignored,omitempty"` // tokens no decoder recognized
	Raw         string           `json:"raw"`
}

// Ceiling returns the lowest broken, overcast, or indefinite-ceiling layer
// in feet. ok is false when the report has no ceiling.
func (m *DecodedMetar) Ceiling() (int, bool) {
	ceiling := 0
	found := false
	for _, layer := range m.Clouds {
		switch layer.Coverage {
		case CoverageBroken, CoverageOvercast, CoverageVerticalVis:
			if !found || layer.BaseFt < ceiling {
				ceiling = layer.BaseFt
				found = true
			}
		}
	}
	return ceiling, found
}

// joinWords joins prose fragments with single spaces, skipping empties
func joinWords(words []string) string {
	out := ""
	for _, w := range words {
		if w == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += w
	}
	return out
}

package metar

// Decode grammar states. The body of a report is a sequence of optional
// groups in a fixed order; the assembler advances through these states and
// never moves backwards, so a group appearing out of order is ignored
// rather than misattributed.
const (
	stateStation = iota
	stateTime
	stateAuto
	stateWind
	stateVisibility
	stateWeather
	stateClouds
	stateTemperature
	stateAltimeter
	stateRemarks
	stateDone
)

type decodeStep struct {
	state  int
	decode func(tokens []Token, pos int, m *DecodedMetar) int
	// repeat keeps the state active after a match so groups like sky
	// condition and present weather can appear more than once
	repeat bool
}

var decodeSteps = []decodeStep{
	{stateStation, decodeStation, true}, // repeats to skip a METAR/SPECI prefix
	{stateTime, decodeTime, false},
	{stateAuto, decodeAuto, false},
	{stateWind, decodeWind, false},
	{stateVisibility, decodeVisibility, false},
	{stateWeather, decodeWeather, true},
	{stateClouds, decodeCloud, true},
	{stateTemperature, decodeTemperature, false},
	{stateAltimeter, decodeAltimeter, false},
	{stateRemarks, decodeRemarks, false},
}

// Decode parses a raw METAR report into its typed fields. The only fatal
// condition is a missing or malformed station header, reported as
// ErrMalformedReport; any other unrecognized group is collected into
// Ignored and decoding continues. Decode is a pure function of its input
// and safe for concurrent use.
func Decode(raw string) (*DecodedMetar, error) {
	tokens, err := Tokenize(raw)
	if err != nil {
		return nil, err
	}

	m := &DecodedMetar{Raw: raw}

	pos := 0
	minState := stateStation
	for pos < len(tokens) {
		consumed := 0
		for _, step := range decodeSteps {
			if step.state < minState {
				continue
			}
			consumed = step.decode(tokens, pos, m)
			if consumed == 0 {
				continue
			}
			if step.repeat {
				minState = step.state
			} else {
				minState = step.state + 1
			}
			break
		}
		if consumed == 0 {
			m.Ignored = append(m.Ignored, tokens[pos].Text)
			consumed = 1
		}
		pos += consumed
	}

	// Tokenize already verified the station shape, so this only trips if
	// the station step was somehow skipped
	if m.Station == "" {
		return nil, ErrMalformedReport
	}

	return m, nil
}

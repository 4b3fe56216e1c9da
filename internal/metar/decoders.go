package metar

import (
	"regexp"
	"strconv"
)

// Field decoders. Each decoder inspects the token stream starting at the
// current position and returns how many tokens it consumed, zero meaning
// the group did not match. Decoders never fail: a token that looks close
// to a group but does not parse cleanly is simply not consumed, and the
// assembler records it as ignored.

var (
	timeRegex      = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})Z$`)
	windRegex      = regexp.MustCompile(`^(VRB|\d{3})(\d{2,3})(G(\d{2,3}))?KT$`)
	windVarRegex   = regexp.MustCompile(`^(\d{3})V(\d{3})$`)
	visRegex       = regexp.MustCompile(`^(M?)(\d{1,2})(/(\d{1,2}))?SM$`)
	visWholeRegex  = regexp.MustCompile(`^\d{1,2}$`)
	visFracRegex   = regexp.MustCompile(`^(M?)(\d{1,2})/(\d{1,2})SM$`)
	cloudRegex     = regexp.MustCompile(`^(FEW|SCT|BKN|OVC)(\d{3})(CB|TCU)?$`)
	vvRegex        = regexp.MustCompile(`^VV(\d{3})$`)
	tempRegex      = regexp.MustCompile(`^(M?)(\d{2})/(M?)(\d{2})$`)
	tempOnlyRegex  = regexp.MustCompile(`^(M?)(\d{2})/$`)
	altInHgRegex   = regexp.MustCompile(`^A(\d{4})$`)
	altHPaRegex    = regexp.MustCompile(`^Q(\d{3,4})$`)
	weatherRegex   = regexp.MustCompile(`^(\-|\+|VC)?([A-Z]{2,8})$`)
	clearCoverages = map[string]Coverage{
		"SKC": CoverageSkyClear,
		"CLR": CoverageClear,
	}
)

func decodeStation(tokens []Token, pos int, m *DecodedMetar) int {
	if m.Station != "" {
		return 0
	}
	t := tokens[pos].Text
	if t == "METAR" || t == "SPECI" {
		return 1
	}
	if !stationRegex.MatchString(t) {
		return 0
	}
	m.Station = t
	return 1
}

func decodeTime(tokens []Token, pos int, m *DecodedMetar) int {
	match := timeRegex.FindStringSubmatch(tokens[pos].Text)
	if match == nil {
		return 0
	}
	day, _ := strconv.Atoi(match[1])
	hour, _ := strconv.Atoi(match[2])
	minute, _ := strconv.Atoi(match[3])
	if day < 1 || day > 31 || hour > 23 || minute > 59 {
		return 0
	}
	m.Time = &ObservationTime{Day: day, Hour: hour, Minute: minute}
	return 1
}

func decodeAuto(tokens []Token, pos int, m *DecodedMetar) int {
	if tokens[pos].Text != "AUTO" {
		return 0
	}
	m.Auto = true
	return 1
}

// decodeWind parses the wind group and, when one follows, the variable
// direction range group (e.g. 280V350), which is consumed but carries no
// summary weight.
func decodeWind(tokens []Token, pos int, m *DecodedMetar) int {
	match := windRegex.FindStringSubmatch(tokens[pos].Text)
	if match == nil {
		return 0
	}

	w := &Wind{Raw: tokens[pos].Text}
	if match[1] == "VRB" {
		w.Variable = true
	} else {
		w.Direction, _ = strconv.Atoi(match[1])
		if w.Direction > 360 {
			return 0
		}
	}
	w.SpeedKt, _ = strconv.Atoi(match[2])
	if match[4] != "" {
		gust, _ := strconv.Atoi(match[4])
		w.GustKt = &gust
	}
	m.Wind = w

	consumed := 1
	if pos+1 < len(tokens) && windVarRegex.MatchString(tokens[pos+1].Text) {
		w.Raw += " " + tokens[pos+1].Text
		consumed = 2
	}
	return consumed
}

// decodeVisibility handles the three statute-mile shapes: whole ("10SM"),
// fraction ("3/4SM", "M1/4SM") and mixed across two tokens ("1 1/2SM").
// CAVOK is treated as unlimited visibility.
func decodeVisibility(tokens []Token, pos int, m *DecodedMetar) int {
	t := tokens[pos].Text

	if t == "CAVOK" {
		m.Visibility = &Visibility{Whole: 10, Raw: t}
		return 1
	}

	// mixed form: a bare whole number followed by a fraction token
	if visWholeRegex.MatchString(t) && pos+1 < len(tokens) {
		frac := visFracRegex.FindStringSubmatch(tokens[pos+1].Text)
		if frac != nil && frac[1] == "" {
			whole, _ := strconv.Atoi(t)
			num, _ := strconv.Atoi(frac[2])
			den, _ := strconv.Atoi(frac[3])
			if den == 0 {
				return 0
			}
			m.Visibility = &Visibility{
				Whole: whole,
				Num:   num,
				Den:   den,
				Raw:   t + " " + tokens[pos+1].Text,
			}
			return 2
		}
		return 0
	}

	match := visRegex.FindStringSubmatch(t)
	if match == nil {
		return 0
	}
	v := &Visibility{Raw: t, LessThan: match[1] == "M"}
	first, _ := strconv.Atoi(match[2])
	if match[4] != "" {
		den, _ := strconv.Atoi(match[4])
		if den == 0 {
			return 0
		}
		v.Num = first
		v.Den = den
	} else {
		v.Whole = first
	}
	m.Visibility = v
	return 1
}

// decodeWeather validates every two-letter chunk of a present weather group
// against the code tables. A group with any unknown chunk is rejected whole
// rather than partially decoded.
func decodeWeather(tokens []Token, pos int, m *DecodedMetar) int {
	t := tokens[pos].Text
	match := weatherRegex.FindStringSubmatch(t)
	if match == nil {
		return 0
	}

	body := match[2]
	if len(body)%2 != 0 {
		return 0
	}

	p := Phenomenon{Intensity: match[1], Raw: t}
	sawPhenomenon := false
	for i := 0; i < len(body); i += 2 {
		chunk := body[i : i+2]
		if _, ok := descriptorCodes[chunk]; ok && !sawPhenomenon {
			p.Descriptors = append(p.Descriptors, chunk)
			continue
		}
		if _, ok := phenomenonCodes[chunk]; ok {
			p.Codes = append(p.Codes, chunk)
			sawPhenomenon = true
			continue
		}
		return 0
	}
	if len(p.Codes) == 0 && len(p.Descriptors) == 0 {
		return 0
	}
	m.Weather = append(m.Weather, p)
	return 1
}

// decodeCloud parses one sky condition group. Clear-sky indicators, layered
// coverage groups and vertical visibility all land in the same layer list.
func decodeCloud(tokens []Token, pos int, m *DecodedMetar) int {
	t := tokens[pos].Text

	if cov, ok := clearCoverages[t]; ok {
		m.Clouds = append(m.Clouds, CloudLayer{Coverage: cov, Raw: t})
		return 1
	}

	if match := vvRegex.FindStringSubmatch(t); match != nil {
		height, _ := strconv.Atoi(match[1])
		m.Clouds = append(m.Clouds, CloudLayer{
			Coverage: CoverageVerticalVis,
			BaseFt:   height * 100,
			Raw:      t,
		})
		return 1
	}

	match := cloudRegex.FindStringSubmatch(t)
	if match == nil {
		return 0
	}
	base, _ := strconv.Atoi(match[2])
	m.Clouds = append(m.Clouds, CloudLayer{
		Coverage: Coverage(match[1]),
		BaseFt:   base * 100,
		Type:     match[3],
		Raw:      t,
	})
	return 1
}

// decodeTemperature parses the temperature/dewpoint group, including the
// missing-dewpoint form "15/". The M prefix marks values below zero, so
// M04 decodes to -4 and M00 to a signed zero recorded via the flag.
func decodeTemperature(tokens []Token, pos int, m *DecodedMetar) int {
	t := tokens[pos].Text

	if match := tempOnlyRegex.FindStringSubmatch(t); match != nil {
		temp, _ := strconv.Atoi(match[2])
		tr := &Temperature{TempC: temp, Raw: t}
		if match[1] == "M" {
			tr.TempC = -temp
			tr.TempBelowZero = true
		}
		m.Temperature = tr
		return 1
	}

	match := tempRegex.FindStringSubmatch(t)
	if match == nil {
		return 0
	}
	temp, _ := strconv.Atoi(match[2])
	dew, _ := strconv.Atoi(match[4])
	tr := &Temperature{TempC: temp, Raw: t}
	if match[1] == "M" {
		tr.TempC = -temp
		tr.TempBelowZero = true
	}
	if match[3] == "M" {
		dew = -dew
		tr.DewBelowZero = true
	}
	tr.DewpointC = &dew
	if dew > tr.TempC {
		tr.Inverted = true
	}
	m.Temperature = tr
	return 1
}

func decodeAltimeter(tokens []Token, pos int, m *DecodedMetar) int {
	t := tokens[pos].Text

	if match := altInHgRegex.FindStringSubmatch(t); match != nil {
		hundredths, _ := strconv.Atoi(match[1])
		m.Altimeter = &Altimeter{
			InHg: float64(hundredths) / 100,
			Unit: UnitInHg,
			Raw:  t,
		}
		return 1
	}

	if match := altHPaRegex.FindStringSubmatch(t); match != nil {
		hpa, _ := strconv.Atoi(match[1])
		m.Altimeter = &Altimeter{
			InHg: HPaToInHg(hpa),
			Unit: UnitHPa,
			HPa:  hpa,
			Raw:  t,
		}
		return 1
	}

	return 0
}

// decodeRemarks consumes the RMK marker and everything after it as the
// unparsed remarks tail. It always reaches the end of the stream.
func decodeRemarks(tokens []Token, pos int, m *DecodedMetar) int {
	if tokens[pos].Text != "RMK" {
		return 0
	}
	for _, t := range tokens[pos+1:] {
		m.Remarks = append(m.Remarks, t.Text)
	}
	return len(tokens) - pos
}

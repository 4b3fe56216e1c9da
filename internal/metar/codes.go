package metar

// Intensity and proximity prefixes for weather phenomenon groups
var intensityCodes = map[string]string{
	"-":  "light",
	"+":  "heavy",
	"VC": "in the vicinity",
}

// Descriptor codes that qualify a phenomenon (e.g. SHRA = rain showers)
var descriptorCodes = map[string]string{
	"MI": "shallow",
	"PR": "partial",
	"BC": "patches of",
	"DR": "low drifting",
	"BL": "blowing",
	"SH": "showers of",
	"TS": "thunderstorm with",
	"FZ": "freezing",
}

// Phenomenon codes: precipitation, obscuration, and other
var phenomenonCodes = map[string]string{
	// Precipitation
	"DZ": "drizzle",
	"RA": "rain",
	"SN": "snow",
	"SG": "snow grains",
	"IC": "ice crystals",
	"PL": "ice pellets",
	"GR": "hail",
	"GS": "small hail",
	"UP": "unknown precipitation",

	// Obscuration
	"BR": "mist",
	"FG": "fog",
	"FU": "smoke",
	"VA": "volcanic ash",
	"DU": "widespread dust",
	"SA": "sand",
	"HZ": "haze",
	"PY": "spray",

	// Other
	"PO": "dust whirls",
	"SQ": "squalls",
	"FC": "funnel cloud",
	"SS": "sandstorm",
	"DS": "duststorm",
}

// Cloud coverage descriptions keyed by the coded coverage group
var coverageDescriptions = map[Coverage]string{
	CoverageSkyClear:    "clear skies",
	CoverageClear:       "clear skies",
	CoverageFew:         "few clouds",
	CoverageScattered:   "scattered clouds",
	CoverageBroken:      "broken clouds",
	CoverageOvercast:    "overcast",
	CoverageVerticalVis: "sky obscured",
}

// coverageRank orders coverage categories from least to most dense.
// The summary uses the densest layer, so VV (indefinite ceiling)
// outranks overcast.
var coverageRank = map[Coverage]int{
	CoverageSkyClear:    0,
	CoverageClear:       0,
	CoverageFew:         1,
	CoverageScattered:   2,
	CoverageBroken:      3,
	CoverageOvercast:    4,
	CoverageVerticalVis: 5,
}

// Significant cloud type suffixes
var cloudTypeDescriptions = map[string]string{
	"CB":  "cumulonimbus",
	"TCU": "towering cumulus",
}

// compassPoints holds the 16 compass points in clockwise order from north
var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// compassNames maps the short compass point to the prose form used in summaries
var compassNames = map[string]string{
	"N":   "north",
	"NNE": "north-northeast",
	"NE":  "northeast",
	"ENE": "east-northeast",
	"E":   "east",
	"ESE": "east-southeast",
	"SE":  "southeast",
	"SSE": "south-southeast",
	"S":   "south",
	"SSW": "south-southwest",
	"SW":  "southwest",
	"WSW": "west-southwest",
	"W":   "west",
	"WNW": "west-northwest",
	"NW":  "northwest",
	"NNW": "north-northwest",
}

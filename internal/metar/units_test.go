package metar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnotsToMPH(t *testing.T) {
	tests := []struct {
		knots int
		want  int
	}{
		{0, 0},
		{1, 1},
		{15, 17},
		{22, 25},
		{100, 115},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KnotsToMPH(tt.knots), "knots=%d", tt.knots)
	}
}

func TestCelsiusToFahrenheit(t *testing.T) {
	tests := []struct {
		celsius int
		want    int
	}{
		{9, 48},
		{-4, 25},
		{0, 32},
		{100, 212},
		{-40, -40},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CelsiusToFahrenheit(tt.celsius), "celsius=%d", tt.celsius)
	}
}

func TestHPaToInHg(t *testing.T) {
	assert.InDelta(t, 29.91, HPaToInHg(1013), 0.001)
	assert.InDelta(t, 29.53, HPaToInHg(1000), 0.001)
}

func TestDegreesToCompass(t *testing.T) {
	tests := []struct {
		degrees int
		want    string
	}{
		{0, "N"},
		{360, "N"},
		{11, "N"},
		{12, "NNE"},
		{45, "NE"},
		{90, "E"},
		{180, "S"},
		{270, "W"},
		{320, "NW"},
		{337, "NNW"},
		{348, "NNW"},
		{350, "N"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DegreesToCompass(tt.degrees), "degrees=%d", tt.degrees)
	}
}

func TestCompassName(t *testing.T) {
	assert.Equal(t, "northwest", CompassName("NW"))
	assert.Equal(t, "south-southeast", CompassName("SSE"))
	assert.Equal(t, "XX", CompassName("XX"))
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGradeScale(t *testing.T) {
	bands, err := ParseGradeScale("90:A:4.0,80:B:3.0,70:C:2.0,60:D:1.0,0:F:0.0")
	require.NoError(t, err)
	require.Len(t, bands, 5)
	assert.Equal(t, GradeBand{MinPercent: 90, Letter: "A", GradePoint: 4.0}, bands[0])
	assert.Equal(t, GradeBand{MinPercent: 0, Letter: "F", GradePoint: 0.0}, bands[4])
}

func TestParseGradeScaleErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"malformed band", "90:A"},
		{"bad threshold", "abc:A:4.0,0:F:0.0"},
		{"bad points", "90:A:x,0:F:0.0"},
		{"empty letter", "90::4.0,0:F:0.0"},
		{"out of range", "150:A:4.0,0:F:0.0"},
		{"not descending", "80:B:3.0,90:A:4.0,0:F:0.0"},
		{"missing zero band", "90:A:4.0,50:F:0.0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseGradeScale(tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.NotEmpty(t, cfg.GradeScale)
	assert.True(t, cfg.Transcripts.AllowDuplicatePending)
	assert.Positive(t, cfg.Summaries.CacheTTL)
}

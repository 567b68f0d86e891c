package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengamedata/ogdviz/errors"
)

func TestParseAssignments(t *testing.T) {
	m := jobGraphLikeModel()

	patch, err := ParseAssignments(m, `Game=SHIPWRECKS DateRange=2024-01-01..2024-01-31 AppVersionRange='1.0..*' MinimumJobs=3..`)
	require.NoError(t, err)

	assert.Equal(t, "SHIPWRECKS", patch["Game"].Selected)
	assert.Equal(t, day("2024-01-01"), patch["DateRange"].Min.Date)
	assert.Equal(t, day("2024-01-31"), patch["DateRange"].Max.Date)
	assert.Equal(t, "1.0", patch["AppVersionRange"].Min.Text)
	assert.False(t, patch["AppVersionRange"].Max.Set)
	assert.Equal(t, 3.0, patch["MinimumJobs"].Min.Number)
	assert.False(t, patch["MinimumJobs"].Max.Set)
}

func TestParseAssignments_RoundTripsFormat(t *testing.T) {
	m := jobGraphLikeModel()
	item, _ := m.Item("DateRange")
	v := Value{Min: DateBound(day("2024-01-01")), Max: DateBound(day("2024-02-01"))}

	patch, err := ParseAssignments(m, "DateRange="+v.Format(item.Input, item.Mode))
	require.NoError(t, err)
	assert.Equal(t, v, patch["DateRange"])
}

func TestParseAssignments_Errors(t *testing.T) {
	m := jobGraphLikeModel()
	tests := []struct {
		name, line, want string
	}{
		{"unterminated quote", `Game='AQUALAB`, "malformed"},
		{"missing equals", "Game", "expected Name=value"},
		{"unknown item", "Colour=red", `no filter item "Colour"`},
		{"range without separator", "DateRange=2024-01-01", "expected min..max"},
		{"bad date", "DateRange=2024-13-01..", "invalid date"},
		{"bad number", "MinimumJobs=lots..", "invalid number"},
		{"separator value", "JobFilterSeparator=x", "take no value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAssignments(m, tt.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, errors.IsInvalidRequestError(err))
		})
	}
}

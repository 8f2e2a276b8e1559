package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundTrip(t *testing.T) {
	for _, value := range []string{"2026-01-01", "2026-02-29", "1999-12-31", "2026-08-31"} {
		parsed, err := Parse(value)
		require.NoError(t, err, value)
		assert.Equal(t, value, Format(parsed))
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	for _, value := range []string{"", "31/08/2026", "2026-13-01", "2026-02-30", "2026-8-1", "tomorrow"} {
		_, err := Parse(value)
		assert.Error(t, err, value)
		assert.False(t, Valid(value), value)
	}
}

func TestRangeOrDefault(t *testing.T) {
	from, to, err := RangeOrDefault("2026-09-01", "2026-09-30", 7, 30)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01", from)
	assert.Equal(t, "2026-09-30", to)

	from, to, err = RangeOrDefault("", "", 7, 30)
	require.NoError(t, err)
	now := time.Now()
	assert.Equal(t, Format(now.AddDate(0, 0, -7)), from)
	assert.Equal(t, Format(now.AddDate(0, 0, 30)), to)

	_, _, err = RangeOrDefault("nope", "", 7, 30)
	assert.Error(t, err)
	_, _, err = RangeOrDefault("", "nope", 7, 30)
	assert.Error(t, err)
}

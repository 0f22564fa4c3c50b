package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	cases := map[string]Frequency{
		"Daily":              {1, 1},
		"  twice   DAILY ":   {2, 1},
		"Every other day":    {1, 2},
		"Three times a week": {3, 7},
		"3 times per week":   {3, 7},
		"3/week":             {3, 7},
		"4x/week":            {4, 7},
		"two times a day":    {2, 1},
		"every 10 days":      {1, 10},
		"Monthly":            {1, 30},
		"Every 6 months":     {1, 180},
		"As needed":          {0, 1},
	}
	for in, want := range cases {
		got, err := ParseFrequency(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, got, in)
		}
	}
	for _, bad := range []string{"", "whenever", "0/week", "every 0 days", "3 times per fortnight"} {
		_, err := ParseFrequency(bad)
		assert.Error(t, err, bad)
	}
}

func TestFrequencyExpand(t *testing.T) {
	week := func(offsets ...int) []time.Time {
		out := make([]time.Time, len(offsets))
		for i, o := range offsets {
			out[i] = monday.AddDate(0, 0, o)
		}
		return out
	}
	sunday := monday.AddDate(0, 0, 6)

	assert.Equal(t, week(0, 2, 4), Frequency{3, 7}.Expand(monday, sunday))
	assert.Equal(t, week(0, 3), Frequency{2, 7}.Expand(monday, sunday))
	assert.Equal(t, week(0, 0, 1, 1, 2, 2), Frequency{2, 1}.Expand(monday, monday.AddDate(0, 0, 2)))
	assert.Equal(t, week(0, 3, 6), Frequency{1, 3}.Expand(monday, sunday))
	assert.Equal(t, week(0), Frequency{1, 30}.Expand(monday, sunday))
	assert.Equal(t, week(0, 2, 4, 7, 9, 11), Frequency{3, 7}.Expand(monday, monday.AddDate(0, 0, 12)))
	assert.Nil(t, Frequency{0, 1}.Expand(monday, sunday))
	assert.Nil(t, Frequency{1, 1}.Expand(sunday, monday))

	f, err := ParseFrequency("Daily")
	require.NoError(t, err)
	assert.Len(t, f.Expand(monday, sunday), 7)
}

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	ts, err := NewTimeStringFromString("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, ts.Minutes())
	assert.True(t, ts.IsValid())

	for _, bad := range []string{"", "25:00", "09:60", "9am", "09-30"} {
		_, err := NewTimeStringFromString(bad)
		assert.ErrorIs(t, err, ErrInvalidTimeFormat, bad)
	}
}

func TestTimeString_Compare(t *testing.T) {
	assert.True(t, TimeString("09:00").IsBefore("13:00"))
	assert.False(t, TimeString("13:00").IsBefore("13:00"))
	assert.True(t, TimeString("14:00").IsAfter("13:00"))
	assert.Equal(t, -1, TimeString("bad").Minutes())
	assert.False(t, TimeString("bad").IsValid())
}

func TestTimeString_Scan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  TimeString
	}{
		{name: "postgres time", value: "09:30:00", want: "09:30"},
		{name: "bytes", value: []byte("18:00:00"), want: "18:00"},
		{name: "time.Time", value: time.Date(0, 1, 1, 7, 15, 0, 0, time.UTC), want: "07:15"},
		{name: "null", value: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts TimeString
			require.NoError(t, ts.Scan(tt.value))
			assert.Equal(t, tt.want, ts)
		})
	}

	var ts TimeString
	assert.Error(t, ts.Scan(42))
}

func TestTimeString_Value(t *testing.T) {
	v, err := TimeString("").Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = TimeString("09:00").Value()
	require.NoError(t, err)
	assert.Equal(t, "09:00", v)
}

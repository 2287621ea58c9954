package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdayKey(t *testing.T) {
	day, err := WeekdayKey("2025-06-16")
	require.NoError(t, err)
	assert.Equal(t, "monday", day)

	day, err = WeekdayKey("2025-06-22")
	require.NoError(t, err)
	assert.Equal(t, "sunday", day)

	_, err = WeekdayKey("16/06/2025")
	assert.Error(t, err)
}

func TestIsClosed(t *testing.T) {
	assert.True(t, IsClosed("Closed"))
	assert.True(t, IsClosed(""))
	assert.True(t, IsClosed("  "))
	assert.False(t, IsClosed("9:00 AM - 5:00 PM"))
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Window
		wantErr bool
	}{
		{name: "day shift", in: "9:00 AM - 5:00 PM", want: Window{Start: ClockTime{9, 0}, End: ClockTime{17, 0}}},
		{name: "half past", in: "8:30 AM - 12:30 PM", want: Window{Start: ClockTime{8, 30}, End: ClockTime{12, 30}}},
		{name: "midnight start", in: "12:00 AM - 6:00 AM", want: Window{Start: ClockTime{0, 0}, End: ClockTime{6, 0}}},
		{name: "lower case meridiem", in: "10:00 am - 2:00 pm", want: Window{Start: ClockTime{10, 0}, End: ClockTime{14, 0}}},
		{name: "no separator", in: "9:00 AM to 5:00 PM", wantErr: true},
		{name: "no meridiem", in: "9:00 - 17:00", wantErr: true},
		{name: "garbage", in: "by appointment", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindow(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowSlotsDayShift(t *testing.T) {
	w, err := ParseWindow("9:00 AM - 5:00 PM")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
		"01:00 PM", "02:00 PM", "03:00 PM", "04:00 PM",
	}, w.Slots())
}

func TestWindowSlotsReuseStartMinutes(t *testing.T) {
	w, err := ParseWindow("8:30 AM - 11:00 AM")
	require.NoError(t, err)
	assert.Equal(t, []string{"08:30 AM", "09:30 AM", "10:30 AM"}, w.Slots())
}

func TestWindowSlotsMidnightSpanYieldsNothing(t *testing.T) {
	w, err := ParseWindow("10:00 PM - 2:00 AM")
	require.NoError(t, err)
	assert.Empty(t, w.Slots())
}

package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOunces(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"3.0", 88721},  // 3 oz = 88720.5 µL, rounds half up
		{"3", 88721},
		{"3.25", 96114}, // 96113.875 µL
		{"4.0", 118294},
		{"1", 29574}, // 29573.5 µL
		{"0.01", 296},
		{"10", 295735},
		{".5", 14787}, // 14786.75 µL
		{" 2.5 ", 73934},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOunces(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOunces_Invalid(t *testing.T) {
	for _, in := range []string{"", ".", "-1.0", "abc", "1.2.3", "3,5", "1.0000001", "3o"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseOunces(in)
			assert.ErrorIs(t, err, ErrInvalidOunces)
		})
	}
}

func TestFormatOunces(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{88721, "3.00"},
		{96114, "3.25"},
		{118294, "4.00"},
		{295735, "10.00"},
		{296, "0.01"},
		{0, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatOunces(tt.in))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	// Parsing two-decimal form input and formatting back must be lossless.
	for _, s := range []string{"0.01", "1.00", "2.50", "3.25", "4.00", "9.99", "10.00"} {
		ul, err := ParseOunces(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatOunces(ul), "round trip of %s", s)
	}
}

func TestCheckFeedVolume(t *testing.T) {
	assert.ErrorIs(t, CheckFeedVolume(0), ErrOuncesOutOfRange)
	assert.ErrorIs(t, CheckFeedVolume(-1), ErrOuncesOutOfRange)
	assert.NoError(t, CheckFeedVolume(1))
	assert.NoError(t, CheckFeedVolume(MaxFeedMicroliters))
	assert.ErrorIs(t, CheckFeedVolume(MaxFeedMicroliters+1), ErrOuncesOutOfRange)

	// 11 oz parses fine but is out of range
	ul, err := ParseOunces("11")
	require.NoError(t, err)
	assert.ErrorIs(t, CheckFeedVolume(ul), ErrOuncesOutOfRange)
}

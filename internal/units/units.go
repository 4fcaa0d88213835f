// ABOUTME: Volume conversion between fluid ounces and microliters
// ABOUTME: Exact integer arithmetic with round-half-up, no floating point

package units

import (
	"errors"
	"fmt"
	"strings"
)

// 1 fluid ounce (US) = 29.5735 mL = 29573.5 µL.
// Kept as a rational (numerator over 10) so conversions stay exact.
const (
	microlitersPerOunceNum = 295735
	microlitersPerOunceDen = 10
)

// MaxFeedMicroliters is the largest accepted feed volume (10 oz).
const MaxFeedMicroliters = microlitersPerOunceNum * 10 / microlitersPerOunceDen

// ErrInvalidOunces is returned when an ounce string cannot be parsed.
var ErrInvalidOunces = errors.New("invalid ounces value")

// ErrOuncesOutOfRange is returned when a volume falls outside (0, 10] oz.
var ErrOuncesOutOfRange = errors.New("ounces must be greater than 0 and at most 10")

// ParseOunces converts a decimal ounce string (form input) to integer
// microliters, rounding half up. At most 6 fractional digits are accepted.
func ParseOunces(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidOunces
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: negative volume %q", ErrInvalidOunces, s)
	}

	intPart, fracPart, err := splitDecimal(s)
	if err != nil {
		return 0, err
	}
	if len(fracPart) > 6 {
		return 0, fmt.Errorf("%w: too many decimal places in %q", ErrInvalidOunces, s)
	}

	// mantissa = ounces * 10^len(fracPart)
	var mantissa int64
	for _, c := range intPart + fracPart {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidOunces, s)
		}
		mantissa = mantissa*10 + int64(c-'0')
		if mantissa > 1<<40 {
			return 0, fmt.Errorf("%w: %q out of range", ErrInvalidOunces, s)
		}
	}

	// µL = mantissa * 295735 / (10 * 10^len(fracPart)), round half up
	den := int64(microlitersPerOunceDen)
	for range fracPart {
		den *= 10
	}
	num := mantissa * microlitersPerOunceNum
	return (num + den/2) / den, nil
}

// splitDecimal splits "3.25" into "3" and "25". A missing integer or
// fractional part is allowed ("4", ".5") but not both.
func splitDecimal(s string) (intPart, fracPart string, err error) {
	switch parts := strings.SplitN(s, ".", 2); len(parts) {
	case 1:
		intPart = parts[0]
	case 2:
		intPart, fracPart = parts[0], parts[1]
	}
	if intPart == "" && fracPart == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidOunces, s)
	}
	return intPart, fracPart, nil
}

// FormatOunces converts integer microliters to a decimal ounce string with
// two decimal places, rounding half up.
func FormatOunces(microliters int64) string {
	if microliters < 0 {
		microliters = 0
	}
	// centi-ounces = µL * 100 * 10 / 295735, round half up
	num := microliters * 100 * microlitersPerOunceDen
	centiOunces := (num + microlitersPerOunceNum/2) / microlitersPerOunceNum
	return fmt.Sprintf("%d.%02d", centiOunces/100, centiOunces%100)
}

// CheckFeedVolume validates that a feed volume is within the accepted range:
// strictly positive and at most 10 oz.
func CheckFeedVolume(microliters int64) error {
	if microliters <= 0 || microliters > MaxFeedMicroliters {
		return ErrOuncesOutOfRange
	}
	return nil
}

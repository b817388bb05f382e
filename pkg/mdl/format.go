package mdl

import (
	gomath "math"
	"strconv"
	"strings"

	"github.com/Faultbox/midgard-mdl/pkg/math"
)

// Output precision, in decimal digits.
const (
	precTransform = 5 // position, orientation, scale, vertices, key values
	precColor     = 2
	precWeight    = 3 // skin weights and dangly constraints
	timeDigits    = 7
)

// ff formats a float with a fixed number of decimals. Negative zero is
// written as zero.
func ff(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == "" {
		return s[1:]
	}
	return s
}

// fvec joins floats with single spaces at the given precision.
func fvec(prec int, vals ...float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = ff(v, prec)
	}
	return strings.Join(parts, " ")
}

func fvec3(v math.Vec3, prec int) string {
	return fvec(prec, v.X, v.Y, v.Z)
}

// ftime formats a key time rounded to seven decimals with no trailing zeros.
func ftime(t float64) string {
	return strconv.FormatFloat(roundTo(t, timeDigits), 'f', -1, 64)
}

func fbool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// roundTo rounds v to the given number of decimals.
func roundTo(v float64, digits int) float64 {
	p := gomath.Pow(10, float64(digits))
	return gomath.Round(v*p) / p
}

package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const secondsPerDay = 86400

// Granularity is the bucket size of a bar: either a duration in seconds or a
// number of calendar months, never both. The zero value is the unspecified
// placeholder.
type Granularity struct {
	Seconds int64
	Months  int
	Code    string
}

// Named periods.
var (
	S1  = Granularity{Seconds: 1, Code: "S1"}
	S5  = Granularity{Seconds: 5, Code: "S5"}
	S10 = Granularity{Seconds: 10, Code: "S10"}
	S15 = Granularity{Seconds: 15, Code: "S15"}
	S30 = Granularity{Seconds: 30, Code: "S30"}

	M1  = Granularity{Seconds: 60, Code: "M1"}
	M2  = Granularity{Seconds: 2 * 60, Code: "M2"}
	M3  = Granularity{Seconds: 3 * 60, Code: "M3"}
	M4  = Granularity{Seconds: 4 * 60, Code: "M4"}
	M5  = Granularity{Seconds: 5 * 60, Code: "M5"}
	M6  = Granularity{Seconds: 6 * 60, Code: "M6"}
	M10 = Granularity{Seconds: 10 * 60, Code: "M10"}
	M12 = Granularity{Seconds: 12 * 60, Code: "M12"}
	M15 = Granularity{Seconds: 15 * 60, Code: "M15"}
	M20 = Granularity{Seconds: 20 * 60, Code: "M20"}
	M30 = Granularity{Seconds: 30 * 60, Code: "M30"}
	M45 = Granularity{Seconds: 45 * 60, Code: "M45"}
	M90 = Granularity{Seconds: 90 * 60, Code: "M90"}

	H1  = Granularity{Seconds: 3600, Code: "H1"}
	H2  = Granularity{Seconds: 2 * 3600, Code: "H2"}
	H3  = Granularity{Seconds: 3 * 3600, Code: "H3"}
	H4  = Granularity{Seconds: 4 * 3600, Code: "H4"}
	H6  = Granularity{Seconds: 6 * 3600, Code: "H6"}
	H8  = Granularity{Seconds: 8 * 3600, Code: "H8"}
	H12 = Granularity{Seconds: 12 * 3600, Code: "H12"}

	Daily     = Granularity{Seconds: secondsPerDay, Code: "Daily"}
	Weekly    = Granularity{Seconds: 7 * secondsPerDay, Code: "Weekly"}
	Monthly   = Granularity{Months: 1, Code: "Monthly"}
	Quarterly = Granularity{Months: 3, Code: "Quarterly"}
	Yearly    = Granularity{Months: 12, Code: "Yearly"}
)

var named = []Granularity{
	S1, S5, S10, S15, S30,
	M1, M2, M3, M4, M5, M6, M10, M12, M15, M20, M30, M45, M90,
	H1, H2, H3, H4, H6, H8, H12,
	Daily, Weekly, Monthly, Quarterly, Yearly,
}

// Named returns all predefined granularities, finest first.
func Named() []Granularity {
	out := make([]Granularity, len(named))
	copy(out, named)
	return out
}

// Unit is the unit of a custom granularity.
type Unit int

const (
	Seconds Unit = iota
	Minutes
	Hours
	Days
	Weeks
	Months
)

var unitSuffix = map[Unit]string{
	Seconds: "s",
	Minutes: "m",
	Hours:   "h",
	Days:    "d",
	Weeks:   "w",
	Months:  "mo",
}

var unitSeconds = map[Unit]int64{
	Seconds: 1,
	Minutes: 60,
	Hours:   3600,
	Days:    secondsPerDay,
	Weeks:   7 * secondsPerDay,
}

// NewGranularity validates and builds a granularity from raw fields.
func NewGranularity(seconds int64, months int, code string) (Granularity, error) {
	if seconds < 0 || months < 0 {
		return Granularity{}, fmt.Errorf("granularity %q: negative size", code)
	}
	if seconds > 0 && months > 0 {
		return Granularity{}, fmt.Errorf("granularity %q: seconds and months are mutually exclusive", code)
	}
	return Granularity{Seconds: seconds, Months: months, Code: code}, nil
}

// Custom builds a granularity of n units, e.g. Custom(7, Days).
func Custom(n int, unit Unit) (Granularity, error) {
	if n <= 0 {
		return Granularity{}, errors.New("custom granularity size must be positive")
	}
	suffix, ok := unitSuffix[unit]
	if !ok {
		return Granularity{}, fmt.Errorf("unknown granularity unit %d", unit)
	}
	code := strconv.Itoa(n) + suffix
	if unit == Months {
		return NewGranularity(0, n, code)
	}
	return NewGranularity(int64(n)*unitSeconds[unit], 0, code)
}

// ParseGranularity accepts a predefined code (case-insensitive) or "<n><unit>"
// with unit one of s, m, h, d, w, mo.
func ParseGranularity(s string) (Granularity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Granularity{}, errors.New("empty granularity")
	}
	for _, g := range named {
		if strings.EqualFold(g.Code, s) {
			return g, nil
		}
	}
	lower := strings.ToLower(s)
	i := 0
	for i < len(lower) && lower[i] >= '0' && lower[i] <= '9' {
		i++
	}
	if i == 0 || i == len(lower) {
		return Granularity{}, fmt.Errorf("unknown granularity %q", s)
	}
	n, err := strconv.Atoi(lower[:i])
	if err != nil {
		return Granularity{}, fmt.Errorf("parse granularity %q: %w", s, err)
	}
	for u, suffix := range unitSuffix {
		if lower[i:] == suffix {
			return Custom(n, u)
		}
	}
	return Granularity{}, fmt.Errorf("unknown granularity unit in %q", s)
}

// IsUnspecified reports whether g is the zero/zero placeholder.
func (g Granularity) IsUnspecified() bool { return g.Seconds == 0 && g.Months == 0 }

func (g Granularity) IsMonthBased() bool    { return g.Months > 0 }
func (g Granularity) IsDurationBased() bool { return g.Seconds > 0 }

// IsIntraday reports whether g is shorter than one day.
func (g Granularity) IsIntraday() bool {
	return g.Months == 0 && g.Seconds > 0 && g.Seconds < secondsPerDay
}

// Duration returns the length of a duration-based granularity, or zero.
func (g Granularity) Duration() time.Duration {
	return time.Duration(g.Seconds) * time.Second
}

// Equal compares sizes and ignores the code.
func (g Granularity) Equal(o Granularity) bool {
	return g.Seconds == o.Seconds && g.Months == o.Months
}

// Compare orders by months, then seconds.
func (g Granularity) Compare(o Granularity) int {
	switch {
	case g.Months < o.Months:
		return -1
	case g.Months > o.Months:
		return 1
	case g.Seconds < o.Seconds:
		return -1
	case g.Seconds > o.Seconds:
		return 1
	}
	return 0
}

// ReachableFrom reports whether bars of src can be compressed into bars of g.
func (g Granularity) ReachableFrom(src Granularity) bool {
	switch {
	case g.Months > 0:
		if src.Months > 0 {
			return g.Months%src.Months == 0
		}
		return src.Seconds > 0 && secondsPerDay%src.Seconds == 0
	case g.Seconds == 0:
		return src.IsUnspecified()
	case src.Seconds == 0:
		return false
	default:
		return g.Seconds%src.Seconds == 0
	}
}

// Key is a canonical identifier stable across codes, used for storage.
func (g Granularity) Key() string {
	switch {
	case g.Months > 0:
		return strconv.Itoa(g.Months) + "mo"
	case g.Seconds > 0:
		return strconv.FormatInt(g.Seconds, 10) + "s"
	}
	return "current"
}

func (g Granularity) String() string {
	if g.Code != "" {
		return g.Code
	}
	return g.Key()
}

func (g Granularity) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Granularity) UnmarshalText(text []byte) error {
	parsed, err := ParseGranularity(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

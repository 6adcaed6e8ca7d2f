package expiry

import (
	"fmt"
	"time"
)

// DefaultSpan is how many years past the current one a card may expire in.
const DefaultSpan = 14

var defaultLoc = time.UTC

// SetDefaultLocation sets the time location used to decide the current month (fallback UTC).
func SetDefaultLocation(loc *time.Location) {
	if loc != nil {
		defaultLoc = loc
	}
}

// In returns t in the expiry location.
func In(t time.Time) time.Time {
	return t.In(defaultLoc)
}

// YearWindow is the inclusive range of expiry years accepted by the form
// and offered by the year selector.
type YearWindow struct {
	First int
	Last  int
}

// Window returns the year window starting at the current year of now.
func Window(now time.Time, span int) YearWindow {
	if span < 0 {
		span = DefaultSpan
	}
	first := In(now).Year()
	return YearWindow{First: first, Last: first + span}
}

func (w YearWindow) Contains(year int) bool {
	return year >= w.First && year <= w.Last
}

// Years lists every year of the window in ascending order.
func (w YearWindow) Years() []int {
	if w.Last < w.First {
		return nil
	}
	out := make([]int, 0, w.Last-w.First+1)
	for y := w.First; y <= w.Last; y++ {
		out = append(out, y)
	}
	return out
}

func (w YearWindow) String() string {
	return fmt.Sprintf("%d-%d", w.First, w.Last)
}

// Option is a selector entry.
type Option struct {
	Value int
	Label string
}

// Months returns 01..12.
func Months() []Option {
	out := make([]Option, 0, 12)
	for m := 1; m <= 12; m++ {
		out = append(out, Option{Value: m, Label: fmt.Sprintf("%02d", m)})
	}
	return out
}

// YearOptions returns one option per year of w.
func YearOptions(w YearWindow) []Option {
	years := w.Years()
	out := make([]Option, 0, len(years))
	for _, y := range years {
		out = append(out, Option{Value: y, Label: fmt.Sprintf("%d", y)})
	}
	return out
}

func ValidMonth(month int) bool {
	return month >= 1 && month <= 12
}

// IsExpired reports whether a card expiring in month/year is no longer usable at now.
// A card stays valid through its whole expiry month.
func IsExpired(month, year int, now time.Time) bool {
	t := In(now)
	if year < t.Year() {
		return true
	}
	return year == t.Year() && month < int(t.Month())
}

// CardFace returns expiry as MM/YY for display.
func CardFace(month, year int) string {
	return fmt.Sprintf("%02d/%02d", month, year%100)
}

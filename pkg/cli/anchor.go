package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var anchorParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseAnchor parses an --anchor value. It accepts YYYY-MM-DD or an English
// expression such as "tomorrow" or "next monday", resolved against now.
// An empty value returns the zero time.
func ParseAnchor(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, now.Location()); err == nil {
		return t, nil
	}

	r, err := anchorParser.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid anchor %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("invalid anchor %q: want YYYY-MM-DD or a date like \"tomorrow\"", s)
	}
	return r.Time, nil
}

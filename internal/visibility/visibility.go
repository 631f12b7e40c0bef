// Package visibility maps the numeric visibility codes of projects and groups to named levels.
package visibility

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Level is a visibility level code.
type Level int

// Visibility levels.
const (
	Private  Level = 0
	Internal Level = 10
	Public   Level = 20
)

// ErrUnknownLevel is returned by Parse for values outside the known levels.
var ErrUnknownLevel = errors.New("unknown visibility level")

// Levels returns all levels ordered from most to least restrictive.
func Levels() []Level {
	return []Level{Private, Internal, Public}
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	switch l {
	case Private, Internal, Public:
		return true
	}

	return false
}

// String returns the level name.
func (l Level) String() string {
	switch l {
	case Private:
		return "private"
	case Internal:
		return "internal"
	case Public:
		return "public"
	}

	return "unknown(" + strconv.Itoa(int(l)) + ")"
}

// Title returns the level name for display.
func (l Level) Title() string {
	s := l.String()

	return strings.ToUpper(s[:1]) + s[1:]
}

// Parse accepts a numeric code ("20") or a level name ("public").
func Parse(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if n, err := strconv.Atoi(s); err == nil {
		if l := Level(n); l.Valid() {
			return l, nil
		}

		return 0, fmt.Errorf("%w: %d", ErrUnknownLevel, n)
	}

	for _, l := range Levels() {
		if l.String() == s {
			return l, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

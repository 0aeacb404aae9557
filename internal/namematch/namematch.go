// Package namematch resolves a human-given name against a list of titled
// items, the way users refer to "the dentist appointment" or "buy milk".
package namematch

import (
	"fmt"
	"strings"

	"github.com/teemow/auraflow/internal/toolerr"
)

// Find returns the single item whose title contains name, case-insensitively.
// When several titles contain name but exactly one equals it, that one wins.
// Zero or ambiguous matches return a KindNoMatch error naming the candidates.
func Find[T any](op, noun string, items []T, name string, title func(T) string) (T, error) {
	var zero T
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return zero, toolerr.New(toolerr.KindInvalidArgument, op, "%s name must not be empty", noun)
	}

	var matches []T
	for _, it := range items {
		if strings.Contains(strings.ToLower(title(it)), needle) {
			matches = append(matches, it)
		}
	}

	switch len(matches) {
	case 0:
		return zero, toolerr.New(toolerr.KindNoMatch, op, "no %s found with name containing %q", noun, name)
	case 1:
		return matches[0], nil
	}

	var exact []T
	for _, it := range matches {
		if strings.EqualFold(strings.TrimSpace(title(it)), strings.TrimSpace(name)) {
			exact = append(exact, it)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}

	titles := make([]string, 0, len(matches))
	for _, it := range matches {
		titles = append(titles, fmt.Sprintf("%q", title(it)))
	}
	return zero, toolerr.New(toolerr.KindNoMatch, op, "%d %ss match %q: %s", len(matches), noun, name, strings.Join(titles, ", "))
}

package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/oefquery/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // what was checked, e.g. "searches[0]"
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// assertSearch compares returned keys against the expected keys as sets.
// Returned keys are already sorted and unique.
func assertSearch(index int, step SearchStep, got []string) error {
	want := slices.Clone(step.Expect)
	slices.Sort(want)
	want = slices.Compact(want)

	if slices.Equal(want, got) {
		return nil
	}

	var missing, extra []string
	for _, k := range want {
		if _, found := slices.BinarySearch(got, k); !found {
			missing = append(missing, k)
		}
	}
	for _, k := range got {
		if _, found := slices.BinarySearch(want, k); !found {
			extra = append(extra, k)
		}
	}

	return &AssertionError{
		Type:     fmt.Sprintf("searches[%d] %s %s", index, step.Kind, step.Query),
		Expected: formatKeys(want),
		Actual:   fmt.Sprintf("%s (missing %s, unexpected %s)", formatKeys(got), formatKeys(missing), formatKeys(extra)),
	}
}

// assertRegistered checks final row counts in the store.
func assertRegistered(ctx context.Context, st *store.Store, want RegisteredCounts, result *Result) error {
	check := func(kind store.Kind, expected *int) error {
		if expected == nil {
			return nil
		}
		n, err := st.CountRegistrations(ctx, kind)
		if err != nil {
			return fmt.Errorf("count %s registrations: %w", kind, err)
		}
		if n != *expected {
			result.AddError((&AssertionError{
				Type:     fmt.Sprintf("registered %s", kind),
				Expected: fmt.Sprintf("%d rows", *expected),
				Actual:   fmt.Sprintf("%d rows", n),
			}).Error())
		}
		return nil
	}

	if err := check(store.KindAgent, want.Agents); err != nil {
		return err
	}
	return check(store.KindService, want.Services)
}

func formatKeys(keys []string) string {
	return "[" + strings.Join(keys, ", ") + "]"
}

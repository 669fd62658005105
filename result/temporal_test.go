package result

import (
	"testing"
	"time"

	"github.com/clinical-elm/cql/internal/datehelpers"
)

func mustLit(t *testing.T, s string) datehelpers.DateTimeLiteral {
	t.Helper()
	lit, err := datehelpers.ParseDateTime(s)
	if err != nil {
		t.Fatalf("ParseDateTime(%q): %v", s, err)
	}
	return lit
}

func TestFromLiteralUsesDefaultLocWhenNoOffset(t *testing.T) {
	lit := mustLit(t, "@2024-03-15T10:00:00")
	dt := FromLiteral(lit, time.UTC)
	if dt.HasTimezone {
		t.Error("FromLiteral without offset: HasTimezone = true, want false")
	}
	if dt.Time.Location() != time.UTC {
		t.Errorf("FromLiteral without offset: location = %v, want UTC (default)", dt.Time.Location())
	}
}

func TestFromLiteralRespectsExplicitOffset(t *testing.T) {
	lit := mustLit(t, "@2024-03-15T10:00:00-05:00")
	dt := FromLiteral(lit, time.UTC)
	if !dt.HasTimezone {
		t.Error("FromLiteral with offset: HasTimezone = false, want true")
	}
	_, offset := dt.Time.Zone()
	if offset != -5*3600 {
		t.Errorf("FromLiteral offset = %v, want -18000", offset)
	}
}

func TestDateTimeEqual(t *testing.T) {
	a := FromLiteral(mustLit(t, "@2024-03-15"), time.UTC)
	b := FromLiteral(mustLit(t, "@2024-03-15"), time.UTC)
	c := FromLiteral(mustLit(t, "@2024-03-16"), time.UTC)
	if !a.Equal(b) {
		t.Error("DateTime.Equal(same day) = false, want true")
	}
	if a.Equal(c) {
		t.Error("DateTime.Equal(different day) = true, want false")
	}
}

func TestDateTimeCompareUnknownPrecisionMismatch(t *testing.T) {
	coarse := FromLiteral(mustLit(t, "@2024-01"), time.UTC)
	fine := FromLiteral(mustLit(t, "@2024-01-15"), time.UTC)
	if _, ok := coarse.Compare(fine); ok {
		t.Error("Compare(2024-01, 2024-01-15) ok = true, want false (unknown)")
	}
}

func TestDateTimeAddCalendar(t *testing.T) {
	start := FromLiteral(mustLit(t, "@2024-01-31"), time.UTC)
	got := start.AddCalendar(0, 1)
	if got.Time.Month() != time.February || got.Time.Day() != 29 {
		t.Errorf("AddCalendar(2024-01-31, +1 month) = %v, want 2024-02-29", got.Time)
	}
}

func TestDateTimeAddElapsed(t *testing.T) {
	start := FromLiteral(mustLit(t, "@2024-01-01T00:00:00"), time.UTC)
	got := start.AddElapsed(24 * time.Hour)
	if got.Time.Day() != 2 {
		t.Errorf("AddElapsed(+24h) day = %v, want 2", got.Time.Day())
	}
}

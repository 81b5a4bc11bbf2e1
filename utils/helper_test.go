package utils

import (
	"strings"
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("tzdata for %s unavailable: %v", name, err)
	}
	return loc
}

func TestParseRangeDate(t *testing.T) {
	loc := mustLoad(t, "America/Santiago")
	from, to, err := ParseRange("2024-07-15", "", "", loc, true)
	if err != nil {
		t.Fatal(err)
	}
	if got := from.UTC().Format(time.RFC3339); got != "2024-07-15T04:00:00Z" {
		t.Fatalf("from = %s", got)
	}
	if got := to.Sub(*from); got != 24*time.Hour {
		t.Fatalf("range length = %s", got)
	}
}

func TestParseRangeFromTo(t *testing.T) {
	from, to, err := ParseRange("", "2024-01-01", "2024-02-01T00:00:00Z", time.UTC, true)
	if err != nil {
		t.Fatal(err)
	}
	if !from.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected range %s..%s", from, to)
	}

	from, to, err = ParseRange("", "2024-01-01", "", time.UTC, true)
	if err != nil || from == nil || to != nil {
		t.Fatalf("open-ended range: %v %v %v", from, to, err)
	}
}

func TestParseRangeDefaults(t *testing.T) {
	from, to, err := ParseRange("", "", "", time.UTC, false)
	if err != nil || from != nil || to != nil {
		t.Fatalf("expected no range, got %v %v %v", from, to, err)
	}

	from, to, err = ParseRange("", "", "", time.UTC, true)
	if err != nil || from == nil || to == nil {
		t.Fatalf("expected today, got %v %v %v", from, to, err)
	}
	now := time.Now()
	if now.Before(*from) || !now.Before(*to) {
		t.Fatalf("today range %s..%s does not contain now", from, to)
	}
}

func TestParseRangeErrors(t *testing.T) {
	if _, _, err := ParseRange("15/07/2024", "", "", time.UTC, true); !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, _, err := ParseRange("", "2024-02-01", "2024-01-01", time.UTC, true)
	if err == nil || err.Error() != "to must be after from" {
		t.Fatalf("expected inverted range error, got %v", err)
	}
}

func TestParseFormBool(t *testing.T) {
	for _, v := range []string{"true", "1", "on", "YES", " True "} {
		if b := ParseFormBool(v); b == nil || !*b {
			t.Fatalf("%q should be true", v)
		}
	}
	for _, v := range []string{"false", "0", "off", "nope"} {
		if b := ParseFormBool(v); b == nil || *b {
			t.Fatalf("%q should be false", v)
		}
	}
	if ParseFormBool("  ") != nil {
		t.Fatal("blank should be nil")
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal(" 1990.50 ")
	if err != nil || d.String() != "1990.5" {
		t.Fatalf("got %s, %v", d, err)
	}
	for _, v := range []string{"", "abc", "NaN", "1,5"} {
		if _, err := ParseDecimal(v); err == nil {
			t.Fatalf("%q should fail", v)
		}
	}
}

func TestExecTemplate(t *testing.T) {
	sql, err := ExecTemplate(`SELECT 1 FROM orders WHERE 1=1 {{- if .from }} AND opened_at >= @from {{- end }}`, map[string]interface{}{"from": true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(sql, "AND opened_at >= @from") {
		t.Fatalf("unexpected sql %q", sql)
	}
	sql, _ = ExecTemplate(`SELECT 1 FROM orders WHERE 1=1 {{- if .from }} AND opened_at >= @from {{- end }}`, map[string]interface{}{})
	if strings.Contains(sql, "@from") {
		t.Fatalf("unexpected sql %q", sql)
	}
}

func TestEmailHelpers(t *testing.T) {
	if NormalizeEmail("  Admin@POS.local ") != "admin@pos.local" {
		t.Fatal("NormalizeEmail")
	}
	if !IsValidEmail("caja@elpuerto.cl") || IsValidEmail("caja@") {
		t.Fatal("IsValidEmail")
	}
}

func TestDereferencePtr(t *testing.T) {
	if DereferencePtr[int](nil, 7) != 7 {
		t.Fatal("default not used")
	}
	v := 3
	if DereferencePtr(&v, 7) != 3 {
		t.Fatal("value not used")
	}
	if got := UniqueSlice([]int{3, 1, 3, 2, 1}); len(got) != 3 {
		t.Fatalf("UniqueSlice = %v", got)
	}
}

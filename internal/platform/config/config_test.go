package config

import (
	"testing"
	"time"

	kit "ycintel/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	root := New()
	pipe := root.Prefix("CORE_PIPELINE_")
	if got := pipe.key("WORKERS"); got != "CORE_PIPELINE_WORKERS" {
		t.Fatalf("key() = %q, want %q", got, "CORE_PIPELINE_WORKERS")
	}
	nested := root.Prefix("SERVICE_").Prefix("PGSQL_")
	if got := nested.key("DBURL"); got != "SERVICE_PGSQL_DBURL" {
		t.Fatalf("nested key() = %q, want %q", got, "SERVICE_PGSQL_DBURL")
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  tracker ")
	if got := c.MustString("NAME"); got != "tracker" {
		t.Fatalf("MustString = %q, want %q", got, "tracker")
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustDuration(t *testing.T) {
	c := New().Prefix("D_")
	t.Setenv("D_TIMEOUT", " 250ms ")
	if got := c.MustDuration("TIMEOUT"); got != 250*time.Millisecond {
		t.Fatalf("MustDuration = %v, want %v", got, 250*time.Millisecond)
	}
	t.Setenv("D_BAD", "nope")
	kit.MustPanic(t, func() { _ = c.MustDuration("BAD") })
}

func TestMayString(t *testing.T) {
	c := New().Prefix("S_")
	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString default = %q, want %q", got, "def")
	}
	t.Setenv("S_NAME", " tracker ")
	if got := c.MayString("NAME", "x"); got != "tracker" {
		t.Fatalf("MayString value = %q, want %q", got, "tracker")
	}
}

func TestMayInt(t *testing.T) {
	c := New().Prefix("I_")
	if got := c.MayInt("MISSING", 9); got != 9 {
		t.Fatalf("MayInt default = %d, want %d", got, 9)
	}
	t.Setenv("I_OK", " 7 ")
	if got := c.MayInt("OK", 0); got != 7 {
		t.Fatalf("MayInt ok = %d, want %d", got, 7)
	}
	t.Setenv("I_BAD", "x")
	if got := c.MayInt("BAD", 3); got != 3 {
		t.Fatalf("MayInt bad -> default = %d, want %d", got, 3)
	}
}

func TestMayPositiveInt(t *testing.T) {
	c := New().Prefix("P_")
	t.Setenv("P_ZERO", "0")
	if got := c.MayPositiveInt("ZERO", 4); got != 4 {
		t.Fatalf("MayPositiveInt zero -> default = %d, want 4", got)
	}
	t.Setenv("P_NEG", "-2")
	if got := c.MayPositiveInt("NEG", 4); got != 4 {
		t.Fatalf("MayPositiveInt negative -> default = %d, want 4", got)
	}
	t.Setenv("P_OK", "16")
	if got := c.MayPositiveInt("OK", 4); got != 16 {
		t.Fatalf("MayPositiveInt = %d, want 16", got)
	}
}

func TestMayBool(t *testing.T) {
	c := New().Prefix("B_")
	if got := c.MayBool("MISSING", true); !got {
		t.Fatalf("MayBool default true expected")
	}
	t.Setenv("B_T", "true")
	if got := c.MayBool("T", false); !got {
		t.Fatalf("MayBool true expected")
	}
	t.Setenv("B_BAD", "nope")
	if got := c.MayBool("BAD", false); got {
		t.Fatalf("MayBool bad -> default false expected")
	}
}

func TestMayDuration(t *testing.T) {
	c := New().Prefix("DUR_")
	if got := c.MayDuration("MISS", 5*time.Second); got != 5*time.Second {
		t.Fatalf("MayDuration default expected")
	}
	t.Setenv("DUR_OK", "150ms")
	if got := c.MayDuration("OK", time.Second); got != 150*time.Millisecond {
		t.Fatalf("MayDuration ok = %v, want %v", got, 150*time.Millisecond)
	}
	t.Setenv("DUR_BAD", "nope")
	if got := c.MayDuration("BAD", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration bad -> default expected")
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("CSV_")
	def := []string{"a", "b"}
	if got := c.MayCSV("MISS", def); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("MayCSV default mismatch: %#v", got)
	}
	t.Setenv("CSV_VALS", " one, two , ,three ,, ")
	got := c.MayCSV("VALS", nil)
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("MayCSV len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MayCSV[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	t.Setenv("CSV_EMPTY", " , ,  ,")
	if got := c.MayCSV("EMPTY", []string{"fallback"}); len(got) != 1 || got[0] != "fallback" {
		t.Fatalf("MayCSV all-empty -> default mismatch: %#v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")

	if got := c.MayEnum("MISS", "ycoss", "ycoss", "ndjson"); got != "ycoss" {
		t.Fatalf("MayEnum default = %q, want %q", got, "ycoss")
	}

	t.Setenv("E_KIND", "NDJSON")
	if got := c.MayEnum("KIND", "ycoss", "ycoss", "ndjson"); got != "ndjson" {
		t.Fatalf("MayEnum allowed value = %q, want %q", got, "ndjson")
	}

	t.Setenv("E_BAD", "xml")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "ycoss", "ycoss", "ndjson") })

	if got := c.MayEnum("MISSING", "", "ycoss"); got != "" {
		t.Fatalf("MayEnum with empty def and missing env = %q, want empty string", got)
	}
}

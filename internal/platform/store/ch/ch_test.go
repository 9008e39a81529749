package ch

import (
	"context"
	"testing"
)

func TestOpen_RejectsEmptyAndBadDSN(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("empty url should fail")
	}
	if _, err := Open(context.Background(), Config{URL: "://nope"}); err == nil {
		t.Fatalf("bad dsn should fail")
	}
}

func TestBuildClientInfo_Defaults(t *testing.T) {
	t.Parallel()

	ci := BuildClientInfo("", " ")
	if len(ci.Products) != 4 {
		t.Fatalf("products = %d, want 4", len(ci.Products))
	}
	if ci.Products[0].Name != "ycintel" {
		t.Fatalf("tag default = %q", ci.Products[0].Name)
	}
	if ci.Products[1].Version != "unknown" {
		t.Fatalf("role default = %q", ci.Products[1].Version)
	}

	ci = BuildClientInfo("run", "tracker")
	if ci.Products[0].Name != "tracker" || ci.Products[1].Version != "run" {
		t.Fatalf("products = %+v", ci.Products)
	}
}

func TestClose_NilSafe(t *testing.T) {
	t.Parallel()
	var c *CH
	if err := c.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}

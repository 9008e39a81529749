package raw

import "testing"

func TestGet_PrefixAndTrim(t *testing.T) {
	t.Setenv("LOG_SERVICE", " tracker-run ")
	t.Setenv("API_PORT", ":8080")

	if got := New().Get("LOG_SERVICE", "x"); got != "tracker-run" {
		t.Fatalf("root Get = %q", got)
	}
	if got := New().Prefix("API_").Get("PORT", ":4000"); got != ":8080" {
		t.Fatalf("prefixed Get = %q", got)
	}
	if got := New().Prefix("API_").Get("MISSING", ":4000"); got != ":4000" {
		t.Fatalf("default = %q", got)
	}
}

func TestGet_BlankIsUnset(t *testing.T) {
	t.Setenv("LOG_COMPONENT", "   ")
	if got := New().Prefix("LOG_").Get("COMPONENT", "pipeline"); got != "pipeline" {
		t.Fatalf("blank should fall back, got %q", got)
	}
}

func TestGetLower(t *testing.T) {
	t.Setenv("LOG_LEVEL", " DEBUG ")
	lc := New().Prefix("LOG_")
	if got := lc.GetLower("LEVEL", "info"); got != "debug" {
		t.Fatalf("GetLower = %q", got)
	}
	if got := lc.GetLower("FORMAT", "Console"); got != "console" {
		t.Fatalf("default should be folded too, got %q", got)
	}
}

func TestGetBool(t *testing.T) {
	env := map[string]string{
		"LOG_T1": "true", "LOG_T2": "1", "LOG_T3": "YES", "LOG_T4": " on ",
		"LOG_F1": "false", "LOG_F2": "0", "LOG_F3": "no", "LOG_F4": "OFF",
		"LOG_JUNK": "maybe",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
	lc := New().Prefix("LOG_")

	tests := []struct {
		key  string
		def  bool
		want bool
	}{
		{"T1", false, true},
		{"T2", false, true},
		{"T3", false, true},
		{"T4", false, true},
		{"F1", true, false},
		{"F2", true, false},
		{"F3", true, false},
		{"F4", true, false},
		{"JUNK", true, true},
		{"JUNK", false, false},
		{"MISSING", true, true},
	}
	for _, tt := range tests {
		if got := lc.GetBool(tt.key, tt.def); got != tt.want {
			t.Errorf("GetBool(%s, %v) = %v, want %v", tt.key, tt.def, got, tt.want)
		}
	}
}

func TestGetInt(t *testing.T) {
	t.Setenv("CORE_PIPELINE_WORKERS", " 8 ")
	t.Setenv("CORE_PIPELINE_COMMIT_EVERY", "25x")
	t.Setenv("CORE_PIPELINE_RETRIES", "-1")
	t.Setenv("CORE_PIPELINE_LIMIT", "+3")
	t.Setenv("CORE_PIPELINE_HUGE", "99999999999999999999999")
	pc := New().Prefix("CORE_").Prefix("PIPELINE_")

	tests := []struct {
		key       string
		def, want int
	}{
		{"WORKERS", 1, 8},
		{"COMMIT_EVERY", 50, 50},
		{"RETRIES", 3, 3},
		{"LIMIT", 0, 0},
		{"HUGE", 4, 4},
		{"MISSING", 11, 11},
	}
	for _, tt := range tests {
		if got := pc.GetInt(tt.key, tt.def); got != tt.want {
			t.Errorf("GetInt(%s) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestPrefix_Nested(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("API_LOG_LEVEL", "warn")

	if got := New().Prefix("LOG_").Get("LEVEL", ""); got != "info" {
		t.Fatalf("LOG_LEVEL = %q", got)
	}
	if got := New().Prefix("API_").Prefix("LOG_").Get("LEVEL", ""); got != "warn" {
		t.Fatalf("API_LOG_LEVEL = %q", got)
	}
}

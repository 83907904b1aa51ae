package variables

import (
	"testing"
	"time"
)

func TestEnv(t *testing.T) {
	t.Setenv("WRAPITUP_TEST_SET", "value")

	if got := Env("WRAPITUP_TEST_SET", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
	if got := Env("WRAPITUP_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestParsers(t *testing.T) {
	if n, err := ParseInt(" 42 "); err != nil || n != 42 {
		t.Fatalf("ParseInt: %d %v", n, err)
	}
	if _, err := ParseInt("forty"); err == nil {
		t.Fatal("ParseInt should reject non numbers")
	}
	if b, err := ParseBool("true"); err != nil || !b {
		t.Fatalf("ParseBool: %v %v", b, err)
	}
	if d, err := ParseSeconds("30"); err != nil || d != 30*time.Second {
		t.Fatalf("ParseSeconds: %s %v", d, err)
	}
}

package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("MERCAPI_ENV_TEST", "console")
	if got := Get("MERCAPI_ENV_TEST", "json"); got != "console" {
		t.Fatalf("got %q", got)
	}

	t.Setenv("MERCAPI_ENV_TEST", "  console  ")
	if got := Get("MERCAPI_ENV_TEST", "json"); got != "console" {
		t.Fatalf("value not trimmed: %q", got)
	}

	t.Setenv("MERCAPI_ENV_TEST", "   ")
	if got := Get("MERCAPI_ENV_TEST", "json"); got != "json" {
		t.Fatalf("blank value must fall back, got %q", got)
	}

	if got := Get("MERCAPI_ENV_TEST_UNSET", "json"); got != "json" {
		t.Fatalf("unset must fall back, got %q", got)
	}
}

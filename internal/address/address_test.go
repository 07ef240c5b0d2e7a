package address

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAcceptsCanonical(t *testing.T) {
	var v Validator = Rules{}
	for _, raw := range []string{"creator", "an_opponent", "diff_opponent", "user", "terra1-abc.def"} {
		got, err := v.Validate(raw)
		if err != nil {
			t.Fatalf("Validate(%q): %v", raw, err)
		}
		if string(got) != raw {
			t.Fatalf("Validate(%q) = %q", raw, got)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"short":      "ab",
		"long":       strings.Repeat("a", DefaultMaxLen+1),
		"ampersand":  "not_a_real_address&DFOUSHDOFUGSDOUFGSDOUGDGSGDFO7d9fgas",
		"uppercase":  "Creator",
		"whitespace": " creator",
		"space":      "cre ator",
	}
	for name, raw := range cases {
		if _, err := (Rules{}).Validate(raw); !errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("%s: expected ErrInvalidIdentifier, got %v", name, err)
		}
	}
}

func TestRulesCustomBounds(t *testing.T) {
	r := NewRules(1, 4)
	if _, err := r.Validate("a"); err != nil {
		t.Fatalf("min 1: %v", err)
	}
	if _, err := r.Validate("abcde"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected max-length rejection, got %v", err)
	}
}

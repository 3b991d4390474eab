package configs

import (
	"errors"
	"strings"
	"testing"
)

func TestNewConfigIDRequiresUUIDFormat(t *testing.T) {
	valid, err := NewConfigID(" 3f2504e0-4f89-11d3-9a0c-0305e82c3301 ")
	if err != nil {
		t.Fatalf("unexpected error for valid identifier: %v", err)
	}
	if valid.String() != "3f2504e0-4f89-11d3-9a0c-0305e82c3301" {
		t.Fatalf("expected trimmed identifier, got %q", valid.String())
	}

	for _, raw := range []string{"", "   ", "not-a-uuid", "1234"} {
		if _, err := NewConfigID(raw); !errors.Is(err, ErrInvalidConfigID) {
			t.Fatalf("expected invalid identifier error for %q, got %v", raw, err)
		}
	}
}

func TestNewUserIDValidatesBounds(t *testing.T) {
	id, err := NewUserID("user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() != "user-1" {
		t.Fatalf("unexpected identifier: %q", id.String())
	}

	if _, err := NewUserID("  "); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected invalid user id error for blank input, got %v", err)
	}
	if _, err := NewUserID(strings.Repeat("x", maxIdentifierLength+1)); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected invalid user id error for oversized input, got %v", err)
	}
}

func TestDedupeStringsPreservesFirstSeenOrder(t *testing.T) {
	got := dedupeStrings([]string{"b", "a", "b", " ", "a ", "c"})
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for index := range want {
		if got[index] != want[index] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestLikedByContains(t *testing.T) {
	record := Config{LikedBy: []string{"user-a", "user-b"}}
	if !record.LikedByContains("user-a") {
		t.Fatalf("expected user-a to be present")
	}
	if record.LikedByContains("user-c") {
		t.Fatalf("expected user-c to be absent")
	}
}

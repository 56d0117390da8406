package validator

import (
	"errors"
	"strings"
	"testing"
)

type item string

func (i item) Validate() error {
	return NotEmpty(string(i), "item")
}

func TestAllReturnsFirstError(t *testing.T) {
	first := errors.New("first")
	if err := All(nil, first, errors.New("second")); err != first {
		t.Fatalf("got %v, want first", err)
	}
	if err := All(nil, nil); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"each ok", Each([]item{"a", "b"}), ""},
		{"each fails", Each([]item{"a", ""}), "item 1: item must not be empty"},
		{"no duplicates", NoDuplicates([]string{"a", "b", "a"}, "names"), "names contains duplicate value: a"},
		{"allowed", MatchesAllowed("x", []string{"a", "b"}, "mode"), "mode must be one of [a b], got x"},
		{"no tags", HasNoTags("a{{b}}", "partial name"), "partial name must not contain mustache tags"},
		{"plain name", HasNoTags("row", "partial name"), ""},
		{
			"map dict in key order",
			MapDict(map[string]string{"b": "", "a": ""}, func(k, v string) error {
				return NotEmpty(v, k)
			}, "partials"),
			"partials: a must not be empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want == "" {
				if tt.err != nil {
					t.Fatalf("unexpected error: %v", tt.err)
				}
				return
			}
			if tt.err == nil || !strings.Contains(tt.err.Error(), tt.want) {
				t.Fatalf("got %v, want %q", tt.err, tt.want)
			}
		})
	}
}

package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopLogger_NoPanic(t *testing.T) {
	l := NewNoopLogger()
	assert.NotPanics(t, func() {
		l.Debug("debug", "k", "v")
		l.Info("info")
		l.Warn("warn", "count", 3)
		l.Error("error", "err", "boom")
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "shorter than max", in: "abc", max: 10, want: "abc"},
		{name: "exactly max", in: "abcde", max: 5, want: "abcde"},
		{name: "truncated with ellipsis", in: "abcdefghij", max: 8, want: "abcde..."},
		{name: "tiny max", in: "abcdef", max: 2, want: "ab"},
		{name: "zero max", in: "abc", max: 0, want: ""},
		{name: "multibyte runes", in: "αβγδεζ", max: 5, want: "αβ..."},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Truncate(tc.in, tc.max))
		})
	}
}

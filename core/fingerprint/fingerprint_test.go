package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf_Deterministic(t *testing.T) {
	a := Of("A", "desc", "", "done", "reward")
	b := Of("A", "desc", "", "done", "reward")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "v1:"))
	assert.True(t, IsValid(a))
}

func TestOf_FrozenAlgorithm(t *testing.T) {
	sum := sha256.Sum256([]byte("A\x1f|\x1fB"))
	assert.Equal(t, "v1:"+hex.EncodeToString(sum[:]), Of("A", "B"))
}

func TestOf_FieldBoundaries(t *testing.T) {
	// Moving text between fields must change the fingerprint.
	assert.NotEqual(t, Of("ab", "c"), Of("a", "bc"))
	assert.NotEqual(t, Of("A", "B"), Of("A2", "B"))
	assert.NotEqual(t, Of("x", "y"), Of("y", "x"))
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"Empty", "", false},
		{"NoPrefix", strings.Repeat("a", 64), false},
		{"Short", "v1:abc", false},
		{"Upper", "v1:" + strings.Repeat("A", 64), false},
		{"NotHex", "v1:" + strings.Repeat("z", 64), false},
		{"Valid", Of("q"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.in))
		})
	}
}

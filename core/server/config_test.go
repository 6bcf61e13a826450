package server_test

import (
	"testing"
	"time"

	"quest-voice/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_IsValidPort(t *testing.T) {
	tests := []struct {
		name string
		port string
		want bool
	}{
		{"Default", "8080", true},
		{"Max", "65535", true},
		{"Zero", "0", false},
		{"TooLarge", "70000", false},
		{"NotNumeric", "http", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{Port: tt.port}
			assert.Equal(t, tt.want, c.IsValidPort())
		})
	}
}

func TestConfig_Address(t *testing.T) {
	assert.Equal(t, ":8080", server.Config{Port: "8080"}.Address())
	assert.Equal(t, "127.0.0.1:9000", server.Config{Host: "127.0.0.1", Port: "9000"}.Address())
}

func TestConfig_ReadTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, server.Config{}.ReadTimeout())
	assert.Equal(t, 5*time.Second, server.Config{ReadTimeoutSeconds: 5}.ReadTimeout())
}

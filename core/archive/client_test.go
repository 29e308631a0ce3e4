package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClient(t *testing.T) {
	cfg := Config{
		Endpoint:  "http://localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "server-logs",
	}

	// Minio connects lazily, so construction succeeds without a live endpoint.
	client, err := NewClient(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, client)
}

func TestSplitLines(t *testing.T) {
	t.Run("CRLF Terminated", func(t *testing.T) {
		lines := SplitLines("first\r\nsecond\r\n")
		assert.Equal(t, []string{"first", "second", ""}, lines)
	})

	t.Run("Bare LF", func(t *testing.T) {
		lines := SplitLines("first\nsecond")
		assert.Equal(t, []string{"first", "second"}, lines)
	})

	t.Run("Empty", func(t *testing.T) {
		lines := SplitLines("")
		assert.Equal(t, []string{""}, lines)
	})
}

package server_test

import (
	"testing"
	"time"

	"inventory-sync/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Timeouts(t *testing.T) {
	c := server.Config{ReadTimeoutSeconds: 30, WriteTimeoutSeconds: 900}
	assert.Equal(t, 30*time.Second, c.ReadTimeout())
	assert.Equal(t, 15*time.Minute, c.WriteTimeout())
	assert.Equal(t, 30*time.Second, c.ShutdownTimeout())

	c.ShutdownTimeoutSeconds = 5
	assert.Equal(t, 5*time.Second, c.ShutdownTimeout())
}

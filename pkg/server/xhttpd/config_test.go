package xhttpd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, "127.0.0.1:7879", DefaultConfig().Addr())

	c := DefaultConfig()
	c.Address = "::1"
	c.Port = 0
	assert.Equal(t, "[::1]:0", c.Addr())
	assert.NoError(t, c.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		err    error
	}{
		{"empty address", func(c *Config) { c.Address = "" }, ErrInvalidAddress},
		{"negative port", func(c *Config) { c.Port = -1 }, ErrInvalidPort},
		{"port too large", func(c *Config) { c.Port = 65536 }, ErrInvalidPort},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }, ErrInvalidInterval},
		{"zero io timeout", func(c *Config) { c.IOTimeout = 0 }, ErrInvalidTimeout},
		{"negative cache", func(c *Config) { c.CacheSize = -1 }, ErrInvalidCache},
		{"negative ttl", func(c *Config) { c.CacheTTL = -time.Second }, ErrInvalidCache},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), tt.err)
		})
	}
}

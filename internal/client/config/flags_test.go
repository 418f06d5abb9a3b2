package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected  *Config
		name      string
		args      []string
		expectErr bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "127.0.0.1:9090", "-s", "/tmp/s.db", "-t", "5", "-i", "10", "-l"},
			expected: &Config{
				ServerEndpointAddr:  "127.0.0.1:9090",
				LocalMode:           true,
				SessionDBPath:       "/tmp/s.db",
				RequestTimeout:      5 * time.Second,
				OnlineCheckInterval: 10 * time.Second,
			},
		},
		{
			name: "unknown flags ignored",
			args: []string{"-x", "y", "-a", "h:1", "-c", "cfg.json"},
			expected: &Config{
				ServerEndpointAddr:  "h:1",
				SessionDBPath:       "chirper.db",
				RequestTimeout:      10 * time.Second,
				OnlineCheckInterval: 3 * time.Second,
			},
		},
		{name: "incorrect check interval", args: []string{"-i", "abc"}, expectErr: true},
		{name: "incorrect timeout", args: []string{"-t", "soon"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withArgs(t, tt.args...)

			config := &Config{}
			config.LoadDefaults()

			err := parseFlags(config)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

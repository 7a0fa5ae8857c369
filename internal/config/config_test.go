package config

import (
	"testing"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyedstore/internal/fingerprint"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Config
		wantErr bool
	}{
		{
			name:  "empty string",
			input: "",
			want:  Default(),
		},
		{
			name:  "separator",
			input: "separator=|",
			want:  Config{Separator: "|"},
		},
		{
			name:  "all options",
			input: "separator=::,digest=true,logging=<root>=DEBUG;keyedstore.storage=TRACE",
			want: Config{
				Separator: "::",
				Digest:    true,
				Logging:   "<root>=DEBUG;keyedstore.storage=TRACE",
			},
		},
		{
			name:  "with spaces and empty parts",
			input: " digest = 1 , , separator = # ",
			want:  Config{Separator: "#", Digest: true},
		},
		{
			name:    "invalid format - no equals",
			input:   "digest",
			wantErr: true,
		},
		{
			name:    "invalid format - empty separator",
			input:   "separator=",
			wantErr: true,
		},
		{
			name:    "invalid format - bad bool",
			input:   "digest=maybe",
			wantErr: true,
		},
		{
			name:    "unknown option",
			input:   "persist=true",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.NotValid), "error %v should be NotValid", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_FingerprintOptions(t *testing.T) {
	cfg := Config{Separator: "|", Digest: true}
	assert.Equal(t, fingerprint.Options{Separator: "|", Digest: true}, cfg.FingerprintOptions())

	assert.Equal(t, fingerprint.DefaultSeparator, Default().FingerprintOptions().Separator)
}

func TestConfig_ConfigureLogging(t *testing.T) {
	defer loggo.ResetLogging()

	require.NoError(t, Config{}.ConfigureLogging())

	cfg := Config{Logging: "keyedstore.config=TRACE"}
	require.NoError(t, cfg.ConfigureLogging())
	assert.Equal(t, loggo.TRACE, loggo.GetLogger("keyedstore.config").LogLevel())

	bad := Config{Logging: "keyedstore.config=LOUD"}
	assert.Error(t, bad.ConfigureLogging())
}

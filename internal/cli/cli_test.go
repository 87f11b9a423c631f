package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/branchtalk/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		want app.Config
	}{
		{
			name: "positional inputs and defaults",
			args: []string{dir},
			want: app.Config{ConfigPath: app.DefaultConfigPath, InputsPath: dir, LogFormat: "json", LogLevel: "info"},
		},
		{
			name: "long flags",
			args: []string{"--inputs", dir, "--config", "conf.hcl", "--log-format", "TEXT", "--log-level", "debug", "--healthcheck-port", "8080"},
			want: app.Config{ConfigPath: "conf.hcl", InputsPath: dir, LogFormat: "text", LogLevel: "debug", HealthcheckPort: 8080},
		},
		{
			name: "shorthands win",
			args: []string{"-i", dir, "-c", "short.hcl"},
			want: app.Config{ConfigPath: "short.hcl", InputsPath: dir, LogFormat: "json", LogLevel: "info"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, exit, err := Parse(tc.args, &bytes.Buffer{})
			require.NoError(t, err)
			require.False(t, exit)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestParse_HelpAndNoInputs(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {}} {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse(args, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"unknown flag", []string{"--nope"}, "flag provided but not defined"},
		{"bad format", []string{"--log-format", "xml", dir}, "invalid log-format"},
		{"bad level", []string{"--log-level", "trace", dir}, "invalid log-level"},
		{"bad port", []string{"--healthcheck-port", "70000", dir}, "invalid healthcheck-port"},
		{"missing dir", []string{filepath.Join(dir, "missing")}, "no such file"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultToCollect(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"empty", nil, nil},
		{"bare username", []string{"natgeo"}, []string{"collect", "natgeo"}},
		{"username with flags", []string{"natgeo", "--max", "10"}, []string{"collect", "natgeo", "--max", "10"}},
		{"explicit collect", []string{"collect", "natgeo"}, []string{"collect", "natgeo"}},
		{"other subcommand", []string{"auth", "status"}, []string{"auth", "status"}},
		{"leading flag", []string{"--version"}, []string{"--version"}},
		{"help", []string{"help"}, []string{"help"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultToCollect(tt.args))
		})
	}
}

func TestCollectFlagsOnlyChanged(t *testing.T) {
	require.NoError(t, collectCmd.ParseFlags([]string{"--max", "25", "-o", "out.csv", "--headless"}))

	flags := collectFlags(collectCmd, "natgeo")

	assert.Equal(t, "natgeo", flags["target"])
	assert.Equal(t, 25, flags["max-followers"])
	assert.Equal(t, "out.csv", flags["output"])
	assert.Equal(t, true, flags["headless"])
	assert.NotContains(t, flags, "format")
	assert.NotContains(t, flags, "concurrency")
	assert.NotContains(t, flags, "session-file")

	assert.NotContains(t, collectFlags(collectCmd, ""), "target")
}

// isolatedConfig points --config at an empty file so no user configuration leaks in
func isolatedConfig(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0600))
	saved := configFile
	configFile = path
	t.Cleanup(func() { configFile = saved })
}

func TestCollectTargetFromEnvironment(t *testing.T) {
	isolatedConfig(t)
	t.Setenv("IGFOLLOWERS_TARGET", "natgeo")

	require.NoError(t, collectCmd.Args(collectCmd, []string{}))

	cfg, err := loadCollectConfig(collectCmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "natgeo", cfg.Instagram.Target)

	cfg, err = loadCollectConfig(collectCmd, []string{"nasa"})
	require.NoError(t, err)
	assert.Equal(t, "nasa", cfg.Instagram.Target)
}

func TestCollectRequiresSomeTarget(t *testing.T) {
	isolatedConfig(t)
	t.Setenv("IGFOLLOWERS_TARGET", "")

	_, err := loadCollectConfig(collectCmd, nil)
	assert.ErrorIs(t, err, errNoTarget)
}

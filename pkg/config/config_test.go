package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/dscript/pkg/evaluator"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, path, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "", path)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, evaluator.Strict, cfg.EvalMode())
}

func TestLoadProjectWinsOverUser(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, UserDir, UserFile), `Mode = "inference"`)

	project := t.TempDir()
	cfg, path, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, UserDir, UserFile), path)
	assert.Equal(t, evaluator.Inference, cfg.EvalMode())

	writeFile(t, filepath.Join(project, ProjectFile), `
MaxCallDepth = 8
ErrorCallback = "onError"
Shapes = ["shapes/pricing.yaml"]
`)
	cfg, path, err = Load(project)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(project, ProjectFile), path)
	assert.Equal(t, evaluator.Strict, cfg.EvalMode())
	assert.Equal(t, 8, cfg.MaxCallDepth)
	assert.Equal(t, "onError", cfg.ErrorCallback)
	assert.Equal(t, DefaultParseCacheSize, cfg.ParseCacheSize)

	cfg.ResolvePaths(path)
	assert.Equal(t, []string{filepath.Join(project, "shapes", "pricing.yaml")}, cfg.Shapes)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", `Colour = "red"`, "field 'Colour' is not defined"},
		{"bad mode", `Mode = "loose"`, "unknown mode"},
		{"bad depth", `MaxCallDepth = 0`, "MaxCallDepth must be positive"},
		{"syntax", `Mode = `, ProjectFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name, ProjectFile)
			writeFile(t, path, tt.content)
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadBrokenProjectFileIsAnError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	writeFile(t, filepath.Join(project, ProjectFile), `MaxCallDepth = "deep"`)
	_, _, err := Load(project)
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name string
		want func(*testing.T)
	}{
		{
			name: "config file initially does not exist",
			want: func(t *testing.T) {
				_, err := os.Open(configFilePath)
				require.ErrorIs(t, err, os.ErrNotExist)
			},
		},
		{
			name: "creates config file with defaults",
			want: func(t *testing.T) {
				cfg, err := Get()
				require.NoError(t, err)
				require.Equal(t, DefaultRegion, cfg.Region)
				require.Equal(t, defaultJournalPath, cfg.JournalPath)

				_, err = os.Stat(configFilePath)
				require.NoError(t, err)
			},
		},
		{
			name: "config exists",
			want: func(t *testing.T) {
				require.NoError(t, (&Config{Project: "proj", Region: "europe-west1", Concurrency: 4}).persist())

				cfg, err := Get()
				require.NoError(t, err)
				require.Equal(t, "proj", cfg.Project)
				require.Equal(t, "europe-west1", cfg.Region)
				require.Equal(t, 4, cfg.Concurrency)
				require.Equal(t, defaultJournalPath, cfg.JournalPath)
			},
		},
		{
			name: "partial file gets defaults",
			want: func(t *testing.T) {
				require.NoError(t, os.WriteFile(configFilePath, []byte("project = \"proj\"\nconcurrency = -3\n"), 0644))

				cfg, err := Get()
				require.NoError(t, err)
				require.Equal(t, "proj", cfg.Project)
				require.Equal(t, DefaultRegion, cfg.Region)
				require.Zero(t, cfg.Concurrency)
			},
		},
		{
			name: "malformed file",
			want: func(t *testing.T) {
				require.NoError(t, os.WriteFile(configFilePath, []byte("project = "), 0644))

				_, err := Get()
				require.Error(t, err)
			},
		},
		{
			name: "interactive; keeps defaults on empty answers",
			want: func(t *testing.T) {
				inputFile = fileWithTextContent(t, "\n\n\n\n\n")
				cfg, err := Init()
				require.NoError(t, err)
				require.Equal(t, initialConfig(), cfg)
			},
		},
		{
			name: "interactive; answers are persisted",
			want: func(t *testing.T) {
				inputFile = fileWithTextContent(t, "proj\neurope-west1\n/tmp/j.sqlite\n/tmp/m.prom\n8\n")
				cfg, err := Init()
				require.NoError(t, err)
				require.Equal(t, Config{
					Project:     "proj",
					Region:      "europe-west1",
					JournalPath: "/tmp/j.sqlite",
					MetricsFile: "/tmp/m.prom",
					Concurrency: 8,
				}, cfg)

				reloaded, err := Get()
				require.NoError(t, err)
				require.Equal(t, cfg, reloaded)
			},
		},
		{
			name: "interactive; invalid concurrency",
			want: func(t *testing.T) {
				inputFile = fileWithTextContent(t, "\n\n\n\nmany\n")
				_, err := Init()
				require.Error(t, err)
			},
		},
	}
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				tempDirSetup(t)
				tt.want(t)
			},
		)
	}
}

func tempDirSetup(t *testing.T) {
	tempDir := t.TempDir()
	configFilePath = filepath.Join(tempDir, "config.toml")
}

func fileWithTextContent(t *testing.T, text string) *os.File {
	tempDir := t.TempDir()
	f, err := os.Create(filepath.Join(tempDir, "file.txt"))
	require.NoError(t, err)
	_, err = f.WriteString(text)
	require.NoError(t, err)

	ff, _ := os.Open(f.Name())
	return ff
}

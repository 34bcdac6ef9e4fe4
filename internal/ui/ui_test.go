package ui

import (
	"bufio"
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/torfstack/gcff/internal/db"
	"github.com/torfstack/gcff/internal/deploy"
	"github.com/torfstack/gcff/internal/deps"
)

func TestPrompt_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "yes\n", want: true},
		{name: "short yes", input: " Y \n", want: true},
		{name: "no", input: "no\n"},
		{name: "asks again", input: "maybe\ny\n", want: true},
		{name: "end of input", input: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &Prompt{reader: bufio.NewReader(strings.NewReader(tt.input)), out: &out, isTerminal: true}

			got, err := p.Confirm("You are about to remove module site/m/. Confirm?")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Contains(t, out.String(), "Confirm? (yes/no)")
		})
	}
}

func TestPrompt_NoTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	_, err = NewPrompt(f, &bytes.Buffer{}).Confirm("Confirm?")
	require.ErrorIs(t, err, ErrNoTerminal)
}

func TestReporter_Plan(t *testing.T) {
	var out bytes.Buffer
	r := NewReporter(&out)
	r.Plan(deploy.Plan{
		Target:  "site/m/",
		Added:   []string{"a.js", "b.js"},
		Changed: []string{"c.js"},
	})

	s := out.String()
	require.Contains(t, s, "This change will add 2 files:")
	require.Contains(t, s, "This change will change 1 file:")
	require.NotContains(t, s, "remove")
	require.Contains(t, s, "  a.js")
	require.Contains(t, s, "  c.js")

	out.Reset()
	r.Plan(deploy.Plan{Target: "site/m/"})
	require.Contains(t, out.String(), "No file changes for site/m/")
}

func TestReporter_Progress(t *testing.T) {
	var out bytes.Buffer
	r := NewReporter(&out)
	r.Start("uploading", 3)
	r.Advance()
	r.Advance()
	r.Advance()
	r.Done()
	require.Contains(t, out.String(), "Uploading 3/3 Done!")
}

func TestReporter_Scanned(t *testing.T) {
	var out bytes.Buffer
	r := NewReporter(&out)
	r.Scanned(deploy.PruneReport{Verified: []string{"a"}, Missing: []string{"m/x.js"}, ToRemove: []string{}})
	require.Contains(t, out.String(), "verified 1, missing 1, damaged 0, extra 0")
	require.Contains(t, out.String(), "missing: m/x.js")
	require.Contains(t, out.String(), "Everything is up-to-date")

	out.Reset()
	r.Scanned(deploy.PruneReport{Extra: []string{"x"}, ToRemove: []string{"x"}})
	require.NotContains(t, out.String(), "up-to-date")
}

func TestRenderHelpers(t *testing.T) {
	var out bytes.Buffer
	Modules(&out, "site", []string{"", "shop/"})
	require.Equal(t, "site/\nsite/shop/\n", out.String())

	out.Reset()
	Dependencies(&out, map[string]string{"react": "18", "express": "4"})
	require.Equal(t, "express 4\nreact 18\n", out.String())

	out.Reset()
	DependencyReport(&out, &deploy.DependencyReport{
		Conflicts: []deps.Conflict{{DependencyName: "lodash", Versions: map[string][]string{"1": {"a/"}, "2": {"b/"}}}},
		Missing:   map[string]string{"vue": "3"},
		Updated:   map[string]deploy.VersionChange{"react": {From: "17", To: "18"}},
	})
	require.Contains(t, out.String(), "conflict lodash:")
	require.Contains(t, out.String(), "missing vue 3")
	require.Contains(t, out.String(), "updated react 17 -> 18")

	out.Reset()
	History(&out, []db.Record{{ID: "x", JournalEntry: deploy.JournalEntry{Kind: "push", Function: "site", Destination: "m/", Puts: 2, CreatedAt: time.Now()}}})
	require.Contains(t, out.String(), "site/m/")
	require.Contains(t, out.String(), "puts=2")

	out.Reset()
	require.NoError(t, JSON(&out, map[string]int{"a": 1}))
	require.Equal(t, "{\n  \"a\": 1\n}\n", out.String())
}

package manifest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	// sha256 of "hello"
	require.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", Hash([]byte("hello")))
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(nil))
}

func TestNewOmitsReservedFile(t *testing.T) {
	m := New(map[string][]byte{
		"index.html":      []byte("<html/>"),
		Filename:          []byte("{}"),
		"sub/" + Filename: []byte("{}"),
	}, nil, map[string]string{"react": "18.2.0"})

	require.Len(t, m.Files, 1)
	require.Equal(t, Hash([]byte("<html/>")), m.Files["index.html"])
	require.NotNil(t, m.Rules)
	require.Equal(t, map[string]string{"react": "18.2.0"}, m.Dependencies)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    *Manifest
		wantErr bool
	}{
		{
			name: "complete manifest",
			data: `{"files":{"a.js":"abc"},"rules":[{"type":"static","path":"a.js","name":"a.js"}],"dependencies":{"x":"1.0"}}`,
			want: &Manifest{
				Files:        map[string]string{"a.js": "abc"},
				Rules:        []json.RawMessage{json.RawMessage(`{"type":"static","path":"a.js","name":"a.js"}`)},
				Dependencies: map[string]string{"x": "1.0"},
			},
		},
		{
			name: "missing rules and dependencies",
			data: `{"files":{}}`,
			want: Empty(),
		},
		{
			name: "reserved file entry is dropped",
			data: `{"files":{"resolve.json":"abc","b":"def"}}`,
			want: &Manifest{
				Files:        map[string]string{"b": "def"},
				Rules:        []json.RawMessage{},
				Dependencies: map[string]string{},
			},
		},
		{name: "not json", data: `not json`, wantErr: true},
		{name: "not an object", data: `[1,2]`, wantErr: true},
		{name: "null", data: `null`, wantErr: true},
		{name: "missing files", data: `{"rules":[]}`, wantErr: true},
		{name: "files is an array", data: `{"files":["a"]}`, wantErr: true},
		{name: "files with non string hash", data: `{"files":{"a":1}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.data))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMarshalParse(t *testing.T) {
	m := New(
		map[string][]byte{"index.html": []byte("x"), "static/app.js": []byte("y")},
		[]json.RawMessage{json.RawMessage(`{"path":".","type":"static","name":"index.html"}`)},
		map[string]string{"lodash": "4.17.21"},
	)
	b, err := m.Marshal()
	require.NoError(t, err)

	parsed, err := Parse(b)
	require.NoError(t, err)
	require.Equal(t, m.Files, parsed.Files)
	require.Equal(t, m.Dependencies, parsed.Dependencies)
	require.Len(t, parsed.Rules, 1)
	require.JSONEq(t, string(m.Rules[0]), string(parsed.Rules[0]))
}

func TestKeys(t *testing.T) {
	require.Equal(t, "resolve.json", Key(""))
	require.Equal(t, "app/resolve.json", Key("app/"))

	require.True(t, IsKey("resolve.json"))
	require.True(t, IsKey("a/b/resolve.json"))
	require.False(t, IsKey("a/notresolve.json"))
	require.False(t, IsKey("a/resolve.json/"))

	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{key: "resolve.json", want: "", ok: true},
		{key: "app/resolve.json", want: "app/", ok: true},
		{key: "a/b/resolve.json", want: "a/b/", ok: true},
		{key: "app/index.html", ok: false},
		{key: "appresolve.json", ok: false},
	}
	for _, tt := range tests {
		got, ok := ModulePath(tt.key)
		require.Equal(t, tt.ok, ok, tt.key)
		require.Equal(t, tt.want, got, tt.key)
	}
}

func TestParseDependencies(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    map[string]string
		wantErr bool
	}{
		{name: "declared", data: `{"files":{},"dependencies":{"react":"18"}}`, want: map[string]string{"react": "18"}},
		{name: "no files entry", data: `{"dependencies":{"react":"18"}}`, want: map[string]string{"react": "18"}},
		{name: "absent", data: `{"files":{}}`, want: map[string]string{}},
		{name: "not a map", data: `{"dependencies":["react"]}`, want: map[string]string{}},
		{name: "not json", data: `nope`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDependencies([]byte(tt.data))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

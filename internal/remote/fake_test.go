package remote

import (
	"context"
	"encoding/json"
	"io"
	"maps"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/cloudfunctions/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"
)

const (
	testProject = "proj"
	testRegion  = "europe-west1"
	testBucket  = "modules"
	pageSize    = 2
)

// fakeCloud serves the subset of the Cloud Storage and Cloud Functions REST
// APIs the client uses.
type fakeCloud struct {
	mu        sync.Mutex
	objects   map[string][]byte
	functions map[string]*cloudfunctions.Function
}

func newFakeCloud(t *testing.T, objects map[string][]byte) (*fakeCloud, *httptest.Server) {
	t.Helper()
	f := &fakeCloud{objects: map[string][]byte{}, functions: map[string]*cloudfunctions.Function{}}
	maps.Copy(f.objects, objects)
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeCloud) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := r.URL.Path
	switch {
	case strings.HasPrefix(p, "/v2/projects/"):
		f.getFunction(w, strings.TrimPrefix(p, "/v2/"))
	case r.Method == http.MethodPost && strings.HasSuffix(p, "/b/"+testBucket+"/o"):
		f.insert(w, r)
	case strings.HasPrefix(p, "/storage/v1/b/"+testBucket+"/o/"):
		key := strings.TrimPrefix(p, "/storage/v1/b/"+testBucket+"/o/")
		switch r.Method {
		case http.MethodGet:
			f.download(w, key)
		case http.MethodDelete:
			f.delete(w, key)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case p == "/storage/v1/b/"+testBucket+"/o":
		f.list(w, r)
	default:
		notFound(w)
	}
}

func (f *fakeCloud) getFunction(w http.ResponseWriter, name string) {
	fn, ok := f.functions[name]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, fn)
}

func (f *fakeCloud) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	glob, prefix := q.Get("matchGlob"), q.Get("prefix")
	var names []string
	for _, name := range slices.Sorted(maps.Keys(f.objects)) {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if ok, _ := doublestar.Match(glob, name); glob == "" || ok {
			names = append(names, name)
		}
	}
	start, _ := strconv.Atoi(q.Get("pageToken"))
	end := min(start+pageSize, len(names))
	res := &storage.Objects{}
	for _, name := range names[start:end] {
		res.Items = append(res.Items, &storage.Object{Name: name})
	}
	if end < len(names) {
		res.NextPageToken = strconv.Itoa(end)
	}
	writeJSON(w, res)
}

func (f *fakeCloud) download(w http.ResponseWriter, key string) {
	content, ok := f.objects[key]
	if !ok {
		notFound(w)
		return
	}
	_, _ = w.Write(content)
}

func (f *fakeCloud) delete(w http.ResponseWriter, key string) {
	if _, ok := f.objects[key]; !ok {
		notFound(w)
		return
	}
	delete(f.objects, key)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeCloud) insert(w http.ResponseWriter, r *http.Request) {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mr := multipart.NewReader(r.Body, params["boundary"])

	var obj storage.Object
	part, err := mr.NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err = json.NewDecoder(part).Decode(&obj); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	part, err = mr.NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	content, err := io.ReadAll(part)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.objects[obj.Name] = content
	writeJSON(w, &storage.Object{Name: obj.Name, Bucket: testBucket})
}

func (f *fakeCloud) object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.objects[key]
	return content, ok
}

func (f *fakeCloud) addFunction(name string, fn *cloudfunctions.Function) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.functions["projects/"+testProject+"/locations/"+testRegion+"/functions/"+name] = fn
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newStorageService(t *testing.T, srv *httptest.Server) *storage.Service {
	t.Helper()
	svc, err := storage.NewService(
		context.Background(),
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return svc
}

func newFunctionsService(t *testing.T, srv *httptest.Server) *cloudfunctions.Service {
	t.Helper()
	svc, err := cloudfunctions.NewService(
		context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return svc
}

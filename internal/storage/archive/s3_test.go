// internal/storage/archive/s3_test.go
package archive

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/newthinker/twquant/internal/core"
)

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Config_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "file.txt", "file.txt"},
		{"archive", "file.txt", "archive/file.txt"},
		{"archive/", "file.txt", "archive/file.txt"},
	}

	for _, tt := range tests {
		s := &S3Storage{prefix: strings.TrimSuffix(tt.prefix, "/")}
		got := s.key(tt.path)
		if got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	if _, err := NewS3(S3Config{Region: "us-east-1"}); !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected ErrConfigMissing, got %v", err)
	}
}

// fakeS3 serves the small path-style subset of the S3 API the storage uses.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte // "bucket/key" -> body
}

type listResult struct {
	XMLName     xml.Name `xml:"ListBucketResult"`
	Name        string   `xml:"Name"`
	Prefix      string   `xml:"Prefix"`
	KeyCount    int      `xml:"KeyCount"`
	IsTruncated bool     `xml:"IsTruncated"`
	Contents    []struct {
		Key  string `xml:"Key"`
		Size int    `xml:"Size"`
	} `xml:"Contents"`
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")

	if r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2" {
		bucket := strings.TrimSuffix(path, "/")
		prefix := r.URL.Query().Get("prefix")
		res := listResult{Name: bucket, Prefix: prefix}
		var keys []string
		for k := range f.objects {
			key := strings.TrimPrefix(k, bucket+"/")
			if strings.HasPrefix(k, bucket+"/") && strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			res.Contents = append(res.Contents, struct {
				Key  string `xml:"Key"`
				Size int    `xml:"Size"`
			}{Key: k, Size: len(f.objects[bucket+"/"+k])})
		}
		res.KeyCount = len(keys)
		w.Header().Set("Content-Type", "application/xml")
		xml.NewEncoder(w).Encode(res)
		return
	}

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[path] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Write(body)
	case http.MethodHead:
		if _, ok := f.objects[path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeS3Storage(t *testing.T, prefix string) (*S3Storage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string][]byte)}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	s, err := NewS3(S3Config{
		Bucket:    "twquant",
		Endpoint:  server.URL,
		Region:    "us-east-1",
		AccessKey: "test",
		SecretKey: "test",
		Prefix:    prefix,
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	return s, fake
}

func TestS3Storage_WriteReadExists(t *testing.T) {
	s, fake := newFakeS3Storage(t, "archive")
	ctx := context.Background()

	if err := s.Write(ctx, "runs/r1/ledger.csv", []byte("symbol,shares")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, ok := fake.objects["twquant/archive/runs/r1/ledger.csv"]; !ok {
		t.Fatalf("object not stored under prefixed key: %v", fake.objects)
	}

	got, err := s.Read(ctx, "runs/r1/ledger.csv")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "symbol,shares" {
		t.Errorf("got %q", got)
	}

	exists, err := s.Exists(ctx, "runs/r1/ledger.csv")
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v; want true", exists, err)
	}
	exists, err = s.Exists(ctx, "runs/r1/missing.csv")
	if err != nil || exists {
		t.Errorf("Exists(missing) = %v, %v; want false", exists, err)
	}
}

func TestS3Storage_ReadMissing(t *testing.T) {
	s, _ := newFakeS3Storage(t, "")

	_, err := s.Read(context.Background(), "nope.csv")
	if !errors.Is(err, core.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestS3Storage_ListDelete(t *testing.T) {
	s, _ := newFakeS3Storage(t, "archive")
	ctx := context.Background()

	s.Write(ctx, "data/2024-03-01/2330.TW_history.parquet", []byte("a"))
	s.Write(ctx, "data/2024-03-01/0050.TW_history.parquet", []byte("b"))
	s.Write(ctx, "journal/weekly/2024-W09.md", []byte("c"))

	paths, err := s.List(ctx, "data/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"data/2024-03-01/0050.TW_history.parquet", "data/2024-03-01/2330.TW_history.parquet"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("List = %v, want %v", paths, want)
	}

	if err := s.Delete(ctx, "journal/weekly/2024-W09.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	exists, _ := s.Exists(ctx, "journal/weekly/2024-W09.md")
	if exists {
		t.Error("object should be deleted")
	}
}

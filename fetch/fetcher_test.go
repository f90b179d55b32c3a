package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/theoremus-urban-solutions/gtfs-ingest/gtfs"
)

type fakeLedger struct {
	etag     string
	lastMod  string
	ok       bool
	readErr  error
	writeErr error

	writes       int
	wroteETag    string
	wroteLastMod string
}

func (l *fakeLedger) Read(ctx context.Context, dataset string) (string, string, bool, error) {
	return l.etag, l.lastMod, l.ok, l.readErr
}

func (l *fakeLedger) Write(ctx context.Context, dataset, etag, lastModified string, fetchedAt time.Time) error {
	l.writes++
	l.wroteETag = etag
	l.wroteLastMod = lastModified
	return l.writeErr
}

func newTestFetcher(ledger Ledger) *Fetcher {
	return New(ledger, 5*time.Second, zerolog.Nop())
}

func TestFetcher_FirstFetchDownloads(t *testing.T) {
	var gotIfNoneMatch, gotIfModifiedSince, gotAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIfNoneMatch = r.Header.Get("If-None-Match")
		gotIfModifiedSince = r.Header.Get("If-Modified-Since")
		gotAPIKey = r.Header.Get("X-Api-Key")
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.Write([]byte("PK\x03\x04 feed bytes"))
	}))
	defer srv.Close()

	ledger := &fakeLedger{}
	f := newTestFetcher(ledger)

	ds := gtfs.Dataset{
		Name:    "agencytest",
		URL:     srv.URL,
		Headers: map[string]string{"X-Api-Key": "secret"},
	}
	res, err := f.Fetch(context.Background(), ds)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer os.RemoveAll(res.Dir)

	if gotIfNoneMatch != "" || gotIfModifiedSince != "" {
		t.Errorf("first fetch sent conditional headers: %q %q", gotIfNoneMatch, gotIfModifiedSince)
	}
	if gotAPIKey != "secret" {
		t.Errorf("expected dataset header to be forwarded, got %q", gotAPIKey)
	}
	if res.State != Downloaded {
		t.Fatalf("expected Downloaded, got %v", res.State)
	}
	body, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(body) != "PK\x03\x04 feed bytes" {
		t.Errorf("downloaded content mismatch: %q", body)
	}
	if ledger.writes != 1 {
		t.Fatalf("expected 1 ledger write, got %d", ledger.writes)
	}
	if ledger.wroteETag != `"v1"` || ledger.wroteLastMod != "Mon, 02 Jan 2006 15:04:05 GMT" {
		t.Errorf("ledger recorded %q / %q", ledger.wroteETag, ledger.wroteLastMod)
	}
	t.Logf("✓ first fetch downloaded %d bytes and recorded metadata", len(body))
}

func TestFetcher_NotModifiedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != `"v1"` {
			t.Errorf("expected If-None-Match to be sent, got %q", r.Header.Get("If-None-Match"))
		}
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	ledger := &fakeLedger{etag: `"v1"`, ok: true}
	f := newTestFetcher(ledger)

	res, err := f.Fetch(context.Background(), gtfs.Dataset{Name: "agencytest", URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.State != Unchanged {
		t.Fatalf("expected Unchanged, got %v", res.State)
	}
	if res.Dir != "" || res.Path != "" {
		t.Errorf("unchanged result should not carry paths: %+v", res)
	}
	if ledger.writes != 0 {
		t.Errorf("304 must not touch the ledger, got %d writes", ledger.writes)
	}
}

func TestFetcher_EqualETagOnFullResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte("same bytes as before"))
	}))
	defer srv.Close()

	ledger := &fakeLedger{etag: `"v1"`, ok: true}
	f := newTestFetcher(ledger)

	res, err := f.Fetch(context.Background(), gtfs.Dataset{Name: "agencytest", URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.State != Unchanged {
		t.Fatalf("expected Unchanged when server ignores conditionals, got %v", res.State)
	}
	if ledger.writes != 0 {
		t.Errorf("unchanged fetch must not touch the ledger, got %d writes", ledger.writes)
	}
}

func TestFetcher_EqualLastModifiedOnFullResponse(t *testing.T) {
	const stamp = "Mon, 02 Jan 2006 15:04:05 GMT"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", stamp)
		w.Write([]byte("same bytes as before"))
	}))
	defer srv.Close()

	ledger := &fakeLedger{lastMod: stamp, ok: true}
	f := newTestFetcher(ledger)

	res, err := f.Fetch(context.Background(), gtfs.Dataset{Name: "agencytest", URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.State != Unchanged {
		t.Fatalf("expected Unchanged, got %v", res.State)
	}
}

func TestFetcher_ChangedETagDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v2"`)
		w.Write([]byte("new feed bytes"))
	}))
	defer srv.Close()

	ledger := &fakeLedger{etag: `"v1"`, ok: true}
	f := newTestFetcher(ledger)

	res, err := f.Fetch(context.Background(), gtfs.Dataset{Name: "agencytest", URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	defer os.RemoveAll(res.Dir)

	if res.State != Downloaded {
		t.Fatalf("expected Downloaded, got %v", res.State)
	}
	if ledger.wroteETag != `"v2"` {
		t.Errorf("ledger should record the new etag, got %q", ledger.wroteETag)
	}
}

func TestFetcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ledger := &fakeLedger{}
	f := newTestFetcher(ledger)

	_, err := f.Fetch(context.Background(), gtfs.Dataset{Name: "agencytest", URL: srv.URL})
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
	if ledger.writes != 0 {
		t.Errorf("failed fetch must not touch the ledger, got %d writes", ledger.writes)
	}
}

func TestFetcher_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ledger := &fakeLedger{}
	f := newTestFetcher(ledger)

	_, err := f.Fetch(context.Background(), gtfs.Dataset{Name: "agencytest", URL: srv.URL})
	if !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	if ledger.writes != 0 {
		t.Errorf("empty body must not touch the ledger, got %d writes", ledger.writes)
	}
}

func TestFetcher_UserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	f := newTestFetcher(&fakeLedger{})
	f.UserAgent = "gtfs-ingest/1.0"

	res, err := f.Fetch(context.Background(), gtfs.Dataset{Name: "agencytest", URL: srv.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	os.RemoveAll(res.Dir)
	if gotUA != "gtfs-ingest/1.0" {
		t.Errorf("expected configured user agent, got %q", gotUA)
	}

	res, err = f.Fetch(context.Background(), gtfs.Dataset{
		Name:    "agencytest",
		URL:     srv.URL,
		Headers: map[string]string{"User-Agent": "custom-agent"},
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	os.RemoveAll(res.Dir)
	if gotUA != "custom-agent" {
		t.Errorf("dataset header should win, got %q", gotUA)
	}
}

func TestFetcher_LedgerReadError(t *testing.T) {
	ledger := &fakeLedger{readErr: errors.New("connection refused")}
	f := newTestFetcher(ledger)

	_, err := f.Fetch(context.Background(), gtfs.Dataset{Name: "agencytest", URL: "http://localhost:0"})
	if err == nil {
		t.Fatal("expected error when ledger read fails")
	}
}

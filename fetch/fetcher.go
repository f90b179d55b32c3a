package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/theoremus-urban-solutions/gtfs-ingest/gtfs"
)

var (
	// ErrUnexpectedStatus reports a response that is neither usable
	// content nor a not-modified signal.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrEmptyBody reports a success response with no content.
	ErrEmptyBody = errors.New("empty response body")
)

// State classifies a fetch outcome.
type State int

const (
	// Downloaded means new content was written to Result.Path.
	Downloaded State = iota
	// Unchanged means the remote copy matches the cache ledger; nothing
	// was persisted and the ledger was not touched.
	Unchanged
)

// Result is the outcome of one conditional fetch. On the Downloaded
// path Dir is the temporary directory holding Path, and removing it is
// the caller's job once the archive has been consumed.
type Result struct {
	State State
	Dir   string
	Path  string
}

// Ledger is the revalidation metadata store the fetcher consults before
// the request and updates after a download. Empty strings mean no prior
// fetch.
type Ledger interface {
	Read(ctx context.Context, dataset string) (etag, lastModified string, ok bool, err error)
	Write(ctx context.Context, dataset, etag, lastModified string, fetchedAt time.Time) error
}

// Fetcher performs conditional downloads of feed archives.
type Fetcher struct {
	Client *http.Client
	Ledger Ledger
	// UserAgent is sent with every request unless a dataset header
	// overrides it.
	UserAgent string
	Log       zerolog.Logger
}

// New returns a Fetcher whose HTTP client times out after timeout.
func New(ledger Ledger, timeout time.Duration, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		Client: &http.Client{Timeout: timeout},
		Ledger: ledger,
		Log:    log,
	}
}

// Fetch retrieves the dataset's archive unless the remote copy matches
// the ledger's revalidation metadata. The request carries the dataset's
// static headers plus If-None-Match / If-Modified-Since when prior
// metadata exists. A 304, or a 200 whose ETag or Last-Modified equals
// the cached value, yields Unchanged with no ledger write. Any other
// non-OK status, or an OK response with an empty body, is an error and
// retains no partial file. Otherwise the body is streamed in full to a
// fresh temporary directory and the ledger is upserted with the newly
// observed metadata.
func (f *Fetcher) Fetch(ctx context.Context, ds gtfs.Dataset) (Result, error) {
	etag, lastMod, _, err := f.Ledger.Read(ctx, ds.Name)
	if err != nil {
		return Result{}, fmt.Errorf("read ledger for %s: %w", ds.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ds.URL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request for %s: %w", ds.Name, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	for k, v := range ds.Headers {
		req.Header.Set(k, v)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", ds.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		f.Log.Info().Str("dataset", ds.Name).Msg("feed not modified")
		return Result{State: Unchanged}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, ds.URL)
	}

	newETag := resp.Header.Get("ETag")
	newLastMod := resp.Header.Get("Last-Modified")
	if (etag != "" && newETag == etag) || (lastMod != "" && newLastMod == lastMod) {
		f.Log.Info().Str("dataset", ds.Name).Msg("feed metadata unchanged")
		return Result{State: Unchanged}, nil
	}

	dir, err := os.MkdirTemp("", "gtfs-ingest-")
	if err != nil {
		return Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	path := filepath.Join(dir, "feed.zip")
	out, err := os.Create(path)
	if err != nil {
		os.RemoveAll(dir)
		return Result{}, fmt.Errorf("create %s: %w", path, err)
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.RemoveAll(dir)
		return Result{}, fmt.Errorf("download %s: %w", ds.Name, err)
	}
	if n == 0 {
		os.RemoveAll(dir)
		return Result{}, fmt.Errorf("%w: %s", ErrEmptyBody, ds.URL)
	}

	if err := f.Ledger.Write(ctx, ds.Name, newETag, newLastMod, time.Now().UTC()); err != nil {
		os.RemoveAll(dir)
		return Result{}, fmt.Errorf("write ledger for %s: %w", ds.Name, err)
	}

	f.Log.Info().
		Str("dataset", ds.Name).
		Int64("bytes", n).
		Str("etag", newETag).
		Msg("feed downloaded")
	return Result{State: Downloaded, Dir: dir, Path: path}, nil
}

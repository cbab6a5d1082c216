package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/setsync/internal/logging"
	"grimm.is/setsync/internal/metrics"
)

func testOptions() Options {
	return Options{Retry: fastRetry()}
}

type listServer struct {
	body         string
	lastModified string
	heads        atomic.Int32
	gets         atomic.Int32
	userAgent    atomic.Value
}

func (s *listServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.userAgent.Store(r.UserAgent())
	if s.lastModified != "" {
		w.Header().Set("Last-Modified", s.lastModified)
	}
	switch r.Method {
	case http.MethodHead:
		s.heads.Add(1)
	case http.MethodGet:
		s.gets.Add(1)
		io.WriteString(w, s.body)
	}
}

func TestRemote_ModifiedAndFetch(t *testing.T) {
	ls := &listServer{body: "1.1.1.1\n2.2.2.0/24\n", lastModified: "Wed, 21 Oct 2015 07:28:00 GMT"}
	srv := httptest.NewServer(ls)
	defer srv.Close()

	r := NewRemote(srv.URL+"/list.txt", testOptions())
	mod, ok, err := r.Modified(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2015, 10, 21, 7, 28, 0, 0, time.UTC), mod)

	st, err := Fetch(context.Background(), r, time.Time{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Addresses.Len())
	assert.EqualValues(t, 1, ls.gets.Load())
	assert.True(t, strings.HasPrefix(ls.userAgent.Load().(string), "setsync/"))
}

func TestRemote_NotModifiedSkipsGet(t *testing.T) {
	ls := &listServer{body: "1.1.1.1\n", lastModified: "Wed, 21 Oct 2015 07:28:00 GMT"}
	srv := httptest.NewServer(ls)
	defer srv.Close()

	cached := time.Date(2015, 10, 21, 7, 28, 0, 0, time.UTC)
	st, err := Fetch(context.Background(), NewRemote(srv.URL, testOptions()), cached, nil)
	require.NoError(t, err)
	assert.True(t, st.NotModified)
	assert.EqualValues(t, 1, ls.heads.Load())
	assert.EqualValues(t, 0, ls.gets.Load())
}

func TestParseLastModified(t *testing.T) {
	want := time.Date(2015, 10, 21, 7, 28, 0, 0, time.UTC)
	for _, v := range []string{
		"Wed, 21 Oct 2015 07:28:00 GMT",
		"Wednesday, 21-Oct-15 07:28:00 GMT",
		"Wed Oct 21 07:28:00 2015",
		"Wed, 21 Oct 2015 09:28:00 +0200",
		"21 Oct 2015 07:28:00 +0000",
	} {
		got, ok := parseLastModified(v)
		assert.True(t, ok, v)
		assert.True(t, got.Equal(want), "%s -> %v", v, got)
	}

	_, ok := parseLastModified("yesterday")
	assert.False(t, ok)
	_, ok = parseLastModified("")
	assert.False(t, ok)
}

func TestRemote_StatusErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, _, err := NewRemote(srv.URL, testOptions()).Modified(context.Background())

	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusNotFound, serr.Code)
	var ferr *Error
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "head", ferr.Op)
	assert.EqualValues(t, 1, calls.Load(), "4xx must not be retried")
}

func TestRemote_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, ok, err := NewRemote(srv.URL, testOptions()).Modified(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 3, calls.Load())
}

func TestRemote_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	io.WriteString(gz, "9.9.9.9\n8.8.8.0/24\n")
	gz.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	st, err := Fetch(context.Background(), NewRemote(srv.URL+"/list.txt.gz", testOptions()), time.Time{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Addresses.Len())
}

func TestRemote_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("10.0.0.1\n", 100))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxBodySize = 50
	_, err := Fetch(context.Background(), NewRemote(srv.URL, opts), time.Time{}, nil)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetcher_CacheIsReadNotWritten(t *testing.T) {
	ls := &listServer{body: "1.1.1.1\n", lastModified: "Wed, 21 Oct 2015 07:28:00 GMT"}
	srv := httptest.NewServer(ls)
	defer srv.Close()

	reg := metrics.New()
	f := NewFetcher(nil, testOptions(), logging.Discard()).WithMetrics(reg)

	st, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, st.NotModified)
	assert.Equal(t, srv.URL, st.URL)
	assert.Zero(t, f.Cache().Len())

	f.Cache().Set(st.URL, st.Modified)
	st, err = f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, st.NotModified)

	// FetchFresh ignores the cache.
	st, err = f.FetchFresh(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, st.NotModified)
	assert.EqualValues(t, 2, ls.gets.Load())
}

func TestFetcher_ResolveError(t *testing.T) {
	f := NewFetcher(nil, testOptions(), logging.Discard()).WithMetrics(metrics.New())
	_, err := f.Fetch(context.Background(), "gopher://example.org")

	var ferr *Error
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "resolve", ferr.Op)
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

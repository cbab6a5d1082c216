package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"grimm.is/setsync/internal/brand"
)

// DefaultMaxBodySize bounds a downloaded list.
const DefaultMaxBodySize = 64 << 20

// ErrBodyTooLarge is returned when a list exceeds Options.MaxBodySize.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Options configures remote providers.
type Options struct {
	Client      *http.Client
	Timeout     time.Duration
	MaxBodySize int64
	UserAgent   string
	Retry       RetryConfig
}

func (o Options) withDefaults() Options {
	if o.Client == nil {
		o.Client = &http.Client{Timeout: o.Timeout}
	}
	if o.MaxBodySize <= 0 {
		o.MaxBodySize = DefaultMaxBodySize
	}
	if o.UserAgent == "" {
		o.UserAgent = brand.UserAgent()
	}
	if o.Retry.MaxAttempts == 0 {
		o.Retry = DefaultRetryConfig()
	}
	return o
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Method string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %s", e.Method, e.Status)
}

// Remote reads a list over HTTP(S).
type Remote struct {
	url  string
	opts Options
}

// NewRemote returns a provider for rawURL.
func NewRemote(rawURL string, opts Options) *Remote {
	return &Remote{url: rawURL, opts: opts.withDefaults()}
}

// URL returns the resolved list URL.
func (r *Remote) URL() string { return r.url }

// Modified issues a HEAD request and parses Last-Modified. A missing or
// malformed header is reported as unknown.
func (r *Remote) Modified(ctx context.Context) (time.Time, bool, error) {
	resp, err := r.do(ctx, http.MethodHead)
	if err != nil {
		return time.Time{}, false, err
	}
	resp.Body.Close()

	t, ok := parseLastModified(resp.Header.Get("Last-Modified"))
	return t, ok, nil
}

// FetchRaw issues a GET request. Gzip bodies are decompressed and the body
// is capped at MaxBodySize.
func (r *Remote) FetchRaw(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.do(ctx, http.MethodGet)
	if err != nil {
		return nil, err
	}

	var body io.ReadCloser = resp.Body
	if isGzip(r.url, resp) {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, &Error{URL: r.url, Op: "gzip", Err: err}
		}
		body = &gzipBody{Reader: gz, raw: resp.Body}
	}

	return &limitedBody{rc: body, remaining: r.opts.MaxBodySize, url: r.url}, nil
}

func (r *Remote) do(ctx context.Context, method string) (*http.Response, error) {
	resp, err := RetryWithResult(ctx, r.opts.Retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, r.url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", r.opts.UserAgent)
		if method == http.MethodGet {
			req.Header.Set("Accept-Encoding", "gzip")
		}

		resp, err := r.opts.Client.Do(req)
		if err != nil {
			if isTemporary(ctx, err) {
				return nil, WrapTemporary(err)
			}
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			serr := &StatusError{Method: method, Code: resp.StatusCode, Status: resp.Status}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return nil, WrapTemporary(serr)
			}
			return nil, serr
		}
		return resp, nil
	})
	if err != nil {
		return nil, &Error{URL: r.url, Op: strings.ToLower(method), Err: err}
	}
	return resp, nil
}

func isTemporary(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return true
	}
	var operr *net.OpError
	return errors.As(err, &operr)
}

func isGzip(rawURL string, resp *http.Response) bool {
	// Accept-Encoding is set explicitly, so net/http leaves decoding to us.
	if resp.Header.Get("Content-Encoding") == "gzip" {
		return true
	}
	u, err := url.Parse(rawURL)
	return err == nil && strings.HasSuffix(u.Path, ".gz")
}

// lastModifiedLayouts complement http.ParseTime with numeric-zone RFC 2822 forms.
var lastModifiedLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
}

func parseLastModified(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := http.ParseTime(v); err == nil {
		return t.UTC(), true
	}
	for _, layout := range lastModifiedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

type gzipBody struct {
	*gzip.Reader
	raw io.ReadCloser
}

func (g *gzipBody) Close() error {
	gerr := g.Reader.Close()
	if err := g.raw.Close(); err != nil {
		return err
	}
	return gerr
}

// limitedBody fails instead of silently truncating an oversized list.
type limitedBody struct {
	rc        io.ReadCloser
	remaining int64
	url       string
}

func (l *limitedBody) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, &Error{URL: l.url, Op: "read", Err: ErrBodyTooLarge}
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.rc.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, &Error{URL: l.url, Op: "read", Err: ErrBodyTooLarge}
	}
	return n, err
}

func (l *limitedBody) Close() error {
	return l.rc.Close()
}

// Package fetch downloads remote image sources before a render starts.
//
// The render pipeline itself never touches the network. Image nodes whose
// Src is an http or https URL are collected here, fetched with retries,
// and handed to the render as resources keyed by that URL.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gogpu/ogimage/node"
)

// Sentinel errors.
var (
	ErrNetwork  = errors.New("fetch: network error")
	ErrStatus   = errors.New("fetch: unexpected status")
	ErrTooLarge = errors.New("fetch: response too large")
	ErrBlocked  = errors.New("fetch: address not allowed")
)

// Defaults.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultAttempts = 3
	DefaultDelay    = 250 * time.Millisecond
	DefaultMaxBytes = 10 << 20

	// DefaultConcurrency bounds the downloads of one Prefetch call.
	DefaultConcurrency = 4
)

// Fetcher downloads image sources.
//
// By default only public addresses are dialed: loopback, private,
// link-local and unspecified addresses fail with ErrBlocked, which is
// never retried. WithAllowPrivate lifts that and WithAllowHosts narrows
// the reachable hosts further.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	attempts     int
	delay        time.Duration
	maxBytes     int64
	concurrency  int
	allowPrivate bool
	allowHosts   map[string]bool
	logger       *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client. Its transport does its own dialing, so
// only literal IP addresses in URLs are checked against the address guard.
func WithClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

// WithTimeout bounds one request of the default client. It has no effect
// together with WithClient.
func WithTimeout(d time.Duration) Option { return func(f *Fetcher) { f.timeout = d } }

// WithRetry sets the attempt count and the first backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(f *Fetcher) { f.attempts, f.delay = attempts, delay }
}

// WithMaxBytes caps the size of one response body.
func WithMaxBytes(n int64) Option { return func(f *Fetcher) { f.maxBytes = n } }

// WithConcurrency bounds the number of parallel downloads in Prefetch.
// Values below one mean one.
func WithConcurrency(n int) Option { return func(f *Fetcher) { f.concurrency = max(n, 1) } }

// WithAllowPrivate permits loopback, private and link-local addresses.
func WithAllowPrivate(allow bool) Option { return func(f *Fetcher) { f.allowPrivate = allow } }

// WithAllowHosts restricts downloads to the named hosts. Matching is
// case-insensitive and ignores the port. No hosts means any host.
func WithAllowHosts(hosts ...string) Option {
	return func(f *Fetcher) {
		f.allowHosts = nil
		for _, h := range hosts {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				if f.allowHosts == nil {
					f.allowHosts = make(map[string]bool)
				}
				f.allowHosts[h] = true
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(f *Fetcher) { f.logger = l } }

// New returns a Fetcher with the defaults applied first.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultTimeout,
		attempts:    DefaultAttempts,
		delay:       DefaultDelay,
		maxBytes:    DefaultMaxBytes,
		concurrency: DefaultConcurrency,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = f.guardedClient()
	}
	return f
}

// guardedClient returns a client whose dialer refuses blocked addresses
// after name resolution, so DNS names pointing inward are caught too.
// Redirects are checked against the host allowlist.
func (f *Fetcher) guardedClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: f.timeout,
		Control: func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(host)
			if err != nil {
				return err
			}
			return f.checkAddr(addr)
		},
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = nil
	t.DialContext = dialer.DialContext
	return &http.Client{
		Timeout:   f.timeout,
		Transport: t,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return f.checkURL(req.URL)
		},
	}
}

func (f *Fetcher) checkAddr(addr netip.Addr) error {
	if f.allowPrivate || isPublic(addr) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrBlocked, addr)
}

// checkURL applies the scheme check, the host allowlist and, for literal
// IP hosts, the address guard.
func (f *Fetcher) checkURL(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrBlocked, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if f.allowHosts != nil && !f.allowHosts[host] {
		return fmt.Errorf("%w: host %q", ErrBlocked, host)
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return f.checkAddr(addr)
	}
	return nil
}

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// isPublic reports whether addr is a globally routable unicast address.
// The cloud metadata endpoint 169.254.169.254 is link-local.
func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsUnspecified(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast(),
		sharedAddressSpace.Contains(addr):
		return false
	}
	return true
}

// Prefetch downloads every remote image source in the tree rooted at root
// and merges the results into resources, which may be nil. Sources
// already present are skipped. Downloads run in parallel up to the
// configured concurrency; the first failure cancels the rest and aborts
// the whole call.
func (f *Fetcher) Prefetch(ctx context.Context, root node.Node, resources map[string][]byte) (map[string][]byte, error) {
	var urls []string
	seen := make(map[string]bool)
	node.Walk(root, func(n node.Node) bool {
		img, ok := n.(*node.Image)
		if !ok || !img.IsRemote() || seen[img.Src] {
			return true
		}
		seen[img.Src] = true
		if _, ok := resources[img.Src]; !ok {
			urls = append(urls, img.Src)
		}
		return true
	})
	if len(urls) == 0 {
		return resources, nil
	}

	out := make(map[string][]byte, len(resources)+len(urls))
	maps.Copy(out, resources)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, f.concurrency)
	for _, u := range urls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			data, err := f.Get(ctx, u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("fetch %s: %w", u, err)
					cancel()
				}
				return
			}
			out[u] = data
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get downloads rawURL, retrying transient failures.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	var data []byte
	start := time.Now()
	err := Retry(ctx, f.attempts, f.delay, func() error {
		var err error
		data, err = f.get(ctx, rawURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	f.logger.Debug("fetched image", "url", rawURL, "bytes", len(data), "elapsed", time.Since(start))
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if err := f.checkURL(req.URL); err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrBlocked) {
			return nil, err
		}
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{Err: fmt.Errorf("%w: %d", ErrStatus, code)}
	default:
		return fmt.Errorf("%w: %d", ErrStatus, code)
	}
}

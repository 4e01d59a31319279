package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultMaxBodyBytes = 32 << 20

// Unlimited as maxItems lets Fetch walk every page.
const Unlimited = -1

// Options configures a Client.
type Options struct {
	URL       string
	Timeout   time.Duration
	UserAgent string

	// MaxPages above 1 walks ?page=N&limit=PageLimit until an empty page.
	MaxPages  int
	PageLimit int

	// RPS paces page requests. Zero disables pacing.
	RPS float64

	// MaxBodyBytes caps each response body. Defaults to 32 MiB.
	MaxBodyBytes int64

	HTTPClient *http.Client
}

// Client downloads the upstream catalog.
type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a feed client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "catalog-mirror/1.0"
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = 250
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{opts: opts, http: hc, limiter: limiter, logger: logger}
}

// Fetch returns the raw payload. With paging enabled the pages are merged into
// a single {"products": [...]} document, stopping once maxItems products have
// been collected. maxItems of 0 stops after the first page; Unlimited walks
// every page.
func (c *Client) Fetch(ctx context.Context, maxItems int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	if c.opts.MaxPages == 1 {
		return c.get(ctx, c.opts.URL)
	}

	merged := make([]json.RawMessage, 0)
	for page := 1; page <= c.opts.MaxPages; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}

		pageURL, err := c.pageURL(page)
		if err != nil {
			return nil, err
		}
		body, err := c.get(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		var env struct {
			Products []json.RawMessage `json:"products"`
		}
		if err := json.Unmarshal(body, &env); err != nil || env.Products == nil {
			return nil, fmt.Errorf("%w: page %d has no products array", ErrMalformedFeed, page)
		}

		c.logger.Debug("feed_page_fetched", "page", page, "items", len(env.Products))
		if len(env.Products) == 0 {
			break
		}
		merged = append(merged, env.Products...)
		if maxItems >= 0 && len(merged) >= maxItems {
			break
		}
	}

	out, err := json.Marshal(map[string][]json.RawMessage{"products": merged})
	if err != nil {
		return nil, fmt.Errorf("failed to merge feed pages: %w", err)
	}
	return out, nil
}

func (c *Client) pageURL(page int) (string, error) {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid feed url: %w", ErrTransport, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(c.opts.PageLimit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: GET %s returned %d: %s", ErrTransport, target, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %w", ErrTransport, err)
	}
	if int64(len(body)) > c.opts.MaxBodyBytes {
		return nil, fmt.Errorf("%w: feed exceeds %d bytes", ErrTransport, c.opts.MaxBodyBytes)
	}
	return body, nil
}

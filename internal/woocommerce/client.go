package woocommerce

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MaxPerPage is the largest page the WooCommerce REST API serves per request.
const MaxPerPage = 100

var (
	ErrMissingAPIURL    = errors.New("woocommerce api url is required")
	ErrUnexpectedStatus = errors.New("unexpected woocommerce response status")
	ErrMissingOrderID   = errors.New("woocommerce response has no numeric order id")
)

// Config holds connection settings for a WooCommerce store.
type Config struct {
	APIURL         string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
}

// Client talks to the WooCommerce REST API using basic authentication.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, ErrMissingAPIURL
	}
	if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("parse woocommerce api url: %w", err)
	}

	credentials := cfg.ConsumerKey + ":" + cfg.ConsumerSecret
	c := &Client{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type productLite struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
}

// FetchNamesByIDs resolves product names in batches of MaxPerPage. Ids the
// store does not return are absent from the result.
func (c *Client) FetchNamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	unique := dedupe(ids)
	names := make(map[int64]string, len(unique))
	if len(unique) == 0 {
		return names, nil
	}

	for start := 0; start < len(unique); start += MaxPerPage {
		end := min(start+MaxPerPage, len(unique))
		batch := unique[start:end]

		// include is built by hand so the commas stay unescaped.
		endpoint := fmt.Sprintf("%s/products?include=%s&per_page=%d&status=any",
			c.baseURL, joinIDs(batch), len(batch))

		var products []productLite
		if _, err := c.getJSON(ctx, endpoint, &products); err != nil {
			return nil, fmt.Errorf("fetch products batch %d-%d: %w", start, end, err)
		}

		for _, p := range products {
			if p.ID == nil || p.Name == nil {
				continue
			}
			names[*p.ID] = *p.Name
		}
	}

	return names, nil
}

// FetchProductName looks up a single product. A 404 from the store yields found == false.
func (c *Client) FetchProductName(ctx context.Context, id int64) (string, bool, error) {
	endpoint := fmt.Sprintf("%s/products/%d", c.baseURL, id)

	var product productLite
	status, err := c.getJSON(ctx, endpoint, &product)
	if status == http.StatusNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fetch product %d: %w", id, err)
	}
	if product.Name == nil {
		return "", false, nil
	}

	return *product.Name, true, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) (int, error) {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return resp.StatusCode, nil
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}

	return resp.StatusCode, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// Package client provides a typed HTTP client for the gift exchange API.
// Every endpoint the server registers has a matching method here, so the
// integration tests can drive the whole protocol through real HTTP.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/giftring/giftring-core/api"
	"github.com/giftring/giftring-core/log"
)

// Method strings accepted by Request.
const (
	HTTPGET    = http.MethodGet
	HTTPPOST   = http.MethodPost
	HTTPDELETE = http.MethodDelete
)

const (
	errCodeNot200 = "API error"

	// DefaultRetries is how often Request retries a failed connection
	// before giving up.
	DefaultRetries = 3
	// DefaultTimeout is the default timeout for the HTTP client.
	DefaultTimeout = 10 * time.Second

	retryBackoff = 500 * time.Millisecond
)

// HTTPclient is the gift exchange API HTTP client.
type HTTPclient struct {
	c       *http.Client
	tr      *http.Transport
	host    *url.URL
	retries int
}

// New returns a client for the API at host, verifying that it answers the
// ping endpoint before handing out the handle.
func New(host string) (*HTTPclient, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid API host %q: %w", host, err)
	}
	tr := &http.Transport{
		IdleConnTimeout: DefaultTimeout,
		WriteBufferSize: 1 << 20,
		ReadBufferSize:  1 << 20,
	}
	c := &HTTPclient{
		c:       &http.Client{Transport: tr, Timeout: DefaultTimeout},
		tr:      tr,
		host:    hostURL,
		retries: DefaultRetries,
	}
	if err := c.ping(); err != nil {
		return nil, err
	}
	log.Debugw("http client ready", "host", hostURL.String())
	return c, nil
}

// SetHostAddr points the client at a different API server and verifies that
// it answers.
func (c *HTTPclient) SetHostAddr(host *url.URL) error {
	c.host = host
	return c.ping()
}

// SetRetries configures the number of retries for the HTTP client.
func (c *HTTPclient) SetRetries(n int) {
	c.retries = n
}

// SetTimeout configures the timeout for the HTTP client.
func (c *HTTPclient) SetTimeout(d time.Duration) {
	c.c.Timeout = d
	c.tr.ResponseHeaderTimeout = d
}

func (c *HTTPclient) ping() error {
	data, status, err := c.Request(HTTPGET, nil, nil, api.PingEndpoint)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	return nil
}

// Request performs a raw `method` request against the endpoint built from
// urlPath and returns the response body and status code. A non-nil jsonBody
// is marshaled and attached. Query parameters come as key/value pairs in
// params; a trailing key without a value is dropped.
func (c *HTTPclient) Request(method string, jsonBody any, params []string, urlPath ...string) ([]byte, int, error) {
	var body []byte
	if jsonBody != nil {
		b, err := json.Marshal(jsonBody)
		if err != nil {
			return nil, 0, fmt.Errorf("cannot encode request body: %w", err)
		}
		body = b
	}
	u := c.endpoint(params, urlPath...)
	log.Debugw("http client request", "method", method, "url", u, "body", bodySnippet(body))

	resp, err := c.do(method, u, body)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnw("cannot close response body", "error", err.Error())
		}
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("cannot read response body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// do issues the request, retrying transport failures with a fixed backoff.
// Each attempt builds a fresh request so the body reader starts over.
func (c *HTTPclient) do(method, endpoint string, body []byte) (*http.Response, error) {
	headers := http.Header{}
	if body != nil {
		headers.Set("Content-Type", "application/json")
		headers.Set("Accept", "application/json")
	}
	var lastErr error
	attempts := max(c.retries, 1)
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(retryBackoff)
		}
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequest(method, endpoint, rd)
		if err != nil {
			return nil, fmt.Errorf("cannot build request: %w", err)
		}
		req.Header = headers
		resp, err := c.c.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		log.Warnw("http request failed", "error", err.Error(), "attempt", i+1, "retries", attempts)
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
}

// doJSON performs a request and decodes the JSON response into out when the
// status is 200. Any other status is reported as an error carrying the
// response body.
func (c *HTTPclient) doJSON(method string, jsonBody, out any, params []string, urlPath ...string) error {
	data, status, err := c.Request(method, jsonBody, params, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, bytes.TrimSpace(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// endpoint joins the host with the path segments and encodes params as the
// query string.
func (c *HTTPclient) endpoint(params []string, urlPath ...string) string {
	u := *c.host
	u.Path = path.Join(u.Path, path.Join(urlPath...))
	if len(params) > 1 {
		q := url.Values{}
		for i := 0; i+1 < len(params); i += 2 {
			q.Set(params[i], params[i+1])
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// bodySnippet truncates large request bodies for debug logging.
func bodySnippet(body []byte) string {
	if len(body) > 512 {
		return string(body[:512]) + "..."
	}
	return string(body)
}

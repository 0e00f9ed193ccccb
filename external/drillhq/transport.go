package drillhq

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
)

const (
	defaultAttemptTimeout = 10 * time.Second
	maxResponseBytes      = 4 << 20
)

var errTransportFailure = crerr.New("drillhq transport failure")
var bearerTokenRegex = regexp.MustCompile(`Bearer\s+\S+`)

// Transport performs a single HTTP exchange against the competition backend.
// A non-nil error means the exchange itself failed (connect, timeout, oversize
// body); HTTP error statuses are returned as a status code, not an error, so
// the prober can decide how to treat them.
type Transport interface {
	Do(ctx context.Context, method, url string, body []byte) (int, []byte, error)
}

// FastHTTPTransport is the default Transport. Every attempt runs under a hard
// deadline so one hanging upstream route cannot stall a whole probe sequence.
type FastHTTPTransport struct {
	client  *fasthttp.Client
	token   string
	timeout time.Duration
}

func NewFastHTTPTransport(token string, timeout time.Duration) *FastHTTPTransport {
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	return &FastHTTPTransport{
		client: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxResponseBytes,
		},
		token:   strings.TrimSpace(token),
		timeout: timeout,
	}
}

func (t *FastHTTPTransport) Do(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(url)
	req.Header.Set("Accept", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	if len(body) > 0 {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	timeout := t.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return 0, nil, context.DeadlineExceeded
	}

	if err := t.client.DoTimeout(req, resp, timeout); err != nil {
		return 0, nil, fmt.Errorf("%w: %s", errTransportFailure, t.sanitize(err.Error()))
	}

	payload := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), payload, nil
}

func (t *FastHTTPTransport) sanitize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if t.token != "" {
		value = strings.ReplaceAll(value, t.token, "REDACTED")
	}
	return bearerTokenRegex.ReplaceAllString(value, "Bearer REDACTED")
}

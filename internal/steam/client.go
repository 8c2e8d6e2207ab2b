// Package steam fetches public Steam Workshop pages.
package steam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	urlpkg "net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"workshopmods/internal/telemetry"
)

const userAgent = "workshopmods/1.0 (+https://github.com/workshopmods/workshopmods)"

// DetailURLTemplate is the public detail page of a Workshop item.
const DetailURLTemplate = "https://steamcommunity.com/sharedfiles/filedetails/?id=%s"

// DetailURL returns the detail page URL for itemID.
func DetailURL(itemID string) string {
	return fmt.Sprintf(DetailURLTemplate, urlpkg.QueryEscape(itemID))
}

// Client performs single-attempt page fetches. It keeps the default HTTP
// client timeouts.
type Client struct {
	http *http.Client
	log  zerolog.Logger
}

// NewClient returns a Client logging request events to l.
func NewClient(l zerolog.Logger) *Client {
	return &Client{http: &http.Client{}, log: l}
}

// Kind categorizes fetch errors.
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindCanceled  Kind = "canceled"
	KindTransport Kind = "transport"
	KindServer    Kind = "server_error"
	KindClient    Kind = "client_error"
)

// Error represents a failed page fetch.
type Error struct {
	Kind    Kind
	Status  int
	URL     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "steam fetch error"
}

func (e *Error) Unwrap() error { return e.Err }

func classify(err error) Kind {
	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindTransport
}

// Fetch performs one GET of url and returns the body. Non-2xx responses are
// returned as *Error.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := c.http.Do(req)
	dur := strconv.FormatInt(time.Since(start).Milliseconds(), 10)
	if err != nil {
		kind := classify(err)
		telemetry.Event(c.log, "workshop_request", map[string]string{
			"url":         url,
			"status":      "error",
			"kind":        string(kind),
			"duration_ms": dur,
		})
		return nil, &Error{Kind: kind, URL: url, Err: err}
	}
	defer resp.Body.Close()
	telemetry.Event(c.log, "workshop_request", map[string]string{
		"url":         url,
		"status":      strconv.Itoa(resp.StatusCode),
		"duration_ms": dur,
	})
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		kind := KindClient
		if resp.StatusCode >= 500 {
			kind = KindServer
		}
		return nil, &Error{Kind: kind, Status: resp.StatusCode, URL: url, Message: resp.Status}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: classify(err), URL: url, Err: err}
	}
	return b, nil
}

package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"

	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
	"golang.org/x/oauth2"
)

// Call describes one pass-through request to the backend.
type Call struct {
	Method string
	Path   string
	Body   []byte
	Bearer *oauth2.Token // optional
}

// Reply is the upstream answer, returned unchanged.
type Reply struct {
	Status      int
	ContentType string
	Body        []byte
}

// OK reports whether the upstream status is 2xx.
func (r *Reply) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Forward performs call against the backend and returns its status, content
// type and body without interpreting them. Only transport failures are
// errors; they wrap ErrBackendUnavailable.
func (c *Client) Forward(ctx context.Context, call Call) (*Reply, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var body io.Reader
	if len(call.Body) > 0 {
		body = bytes.NewReader(call.Body)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, c.baseURL+call.Path, body)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrBackendUnavailable, "building %s %s: %v", call.Method, call.Path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if call.Bearer != nil && call.Bearer.AccessToken != "" {
		call.Bearer.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrBackendUnavailable, "%s %s: %v", call.Method, call.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrBackendUnavailable, "reading %s %s (%s): %v", call.Method, call.Path, statusText(resp.StatusCode), err)
	}

	return &Reply{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

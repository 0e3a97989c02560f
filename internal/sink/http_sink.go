package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/schema"
)

// HTTPSink posts payloads as JSON to a configured base URL plus target,
// carrying an optional bearer token. This is the default Sink
// implementation for workspaces configured with a write-sink target.
type HTTPSink struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPSink builds an HTTPSink on http.DefaultClient, which sets no
// client timeout: long-running sink calls are bounded by the caller's
// context instead.
func NewHTTPSink(baseURL, token string) *HTTPSink {
	return &HTTPSink{BaseURL: baseURL, Token: token, Client: http.DefaultClient}
}

// Post sends payload as a JSON POST to h.BaseURL/target.
func (h *HTTPSink) Post(ctx context.Context, target Target, payload *schema.Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return superr.Wrap(superr.InternalError, err, "marshaling sink payload")
	}

	url := fmt.Sprintf("%s/%s", h.BaseURL, target)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return superr.Wrap(superr.InternalError, err, "building sink request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return superr.Wrap(superr.NetworkError, err, "posting to write sink "+url)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return superr.Newf(superr.RateLimited, "write sink rate-limited the request (%s)", url)
	case resp.StatusCode >= 500:
		return superr.Newf(superr.LocalApiUnavailable, "write sink returned %d for %s", resp.StatusCode, url)
	case resp.StatusCode >= 400:
		return superr.Newf(superr.ApiError, "write sink rejected request: %d for %s", resp.StatusCode, url)
	}
	return nil
}

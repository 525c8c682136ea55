package sentiment

import (
	"context"
	"fmt"
	"time"

	xhttp "PriceCast/pkg/http"
)

// HTTPServiceBase centralizes client construction and JSON requests for the
// external sentiment and news services.
type HTTPServiceBase struct {
	baseURL string
	headers map[string]string
	client  *xhttp.Client
}

// NewHTTPServiceBase builds a client with timeout for baseURL.
func NewHTTPServiceBase(baseURL string, timeout time.Duration, headers map[string]string, opts ...xhttp.ClientOption) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)
	return &HTTPServiceBase{
		baseURL: baseURL,
		headers: headers,
		client:  xhttp.NewClient(opts...),
	}
}

// PostJSON posts payload to path under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("http client not initialized")
	}
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range b.headers {
		headers[k] = v
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     b.baseURL + path,
		Headers: headers,
		Body:    payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// GetJSON issues a GET with query parameters and decodes JSON into dest.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("http client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		Headers:     b.headers,
		QueryParams: query,
	}, dest)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return nil
}

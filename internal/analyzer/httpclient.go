package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/meltforce/fitvision/internal/nutrition"
)

const maxAttempts = 3

// HTTPClient posts meal photos to an analysis service that answers with the
// analysis JSON document.
type HTTPClient struct {
	url        string
	httpClient *http.Client
	backoff    time.Duration
}

// NewHTTPClient creates a client for the service at url.
func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// Analyze uploads image as the multipart field "image". Server errors and
// transport failures are retried up to 3 times with exponential backoff.
func (c *HTTPClient) Analyze(ctx context.Context, image []byte, mimeType string) (*nutrition.Analysis, error) {
	body, contentType, err := multipartImage(image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUnavailable, err)
	}

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return decodeResult(string(data))
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("analysis failed (status %d): %s", resp.StatusCode, data)
		default:
			return nil, fmt.Errorf("%w: analysis rejected (status %d): %s", ErrUnavailable, resp.StatusCode, data)
		}
	}
	return nil, fmt.Errorf("%w: after %d attempts: %v", ErrUnavailable, maxAttempts, lastErr)
}

func multipartImage(image []byte, mimeType string) ([]byte, string, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="meal"`)
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

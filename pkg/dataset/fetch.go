package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kinforge/kinchart/pkg/httputil"
	"github.com/kinforge/kinchart/pkg/kin"
	"github.com/kinforge/kinchart/pkg/observability"
)

// maxDocumentSize caps how much of a fetched dataset document is read.
const maxDocumentSize = 32 << 20 // 32 MiB

// Fetch performs the one-shot HTTP load of a dataset document and
// returns the normalized store.
//
// A non-2xx response or an unparsable body is a terminal load failure:
// no partial dataset is returned. Transient transport failures and 5xx
// responses are retried with backoff; 4xx responses are not, since the
// document is simply not there.
//
// If client is nil, a client with a 30 second timeout is used.
func Fetch(ctx context.Context, client *http.Client, url string) (*kin.Store, error) {
	body, err := FetchBytes(ctx, client, url)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(body))
}

// FetchBytes retrieves the raw dataset document without decoding it.
// Callers that cache the document by content hash use this and decode
// separately.
func FetchBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		hooks := observability.HTTP()
		hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)

		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
			return &httputil.RetryableError{Err: err}
		}
		defer resp.Body.Close()
		hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

		if resp.StatusCode >= 500 {
			return &httputil.RetryableError{
				Err: fmt.Errorf("fetch dataset: status %d", resp.StatusCode),
			}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("fetch dataset: status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

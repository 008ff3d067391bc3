package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// Error reports a failed document download.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// extensionTypes maps well-known document extensions to content types,
// used when the server declares none (or a generic octet stream).
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".txt":  "text/plain",
	".md":   "text/plain",
	".html": "text/html",
	".htm":  "text/html",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Fetcher downloads source documents over HTTP.
type Fetcher struct {
	client *http.Client
}

// New creates a Fetcher with the given request timeout.
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Get downloads the document at rawURL and returns its bytes together
// with the declared content type. A non-200 response is an *Error.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", &Error{URL: rawURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", &Error{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, "", &Error{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &Error{URL: rawURL, Err: fmt.Errorf("reading body: %w", err)}
	}

	return data, contentType(resp.Header.Get("Content-Type"), rawURL), nil
}

// contentType resolves the declared media type, falling back to the URL's
// file extension for servers that declare nothing useful.
func contentType(header, rawURL string) string {
	declared := ""
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil {
			declared = mt
		}
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	if u, err := url.Parse(rawURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		if mt, ok := extensionTypes[ext]; ok {
			return mt
		}
	}
	return declared
}

// Package remote fetches datasets over HTTP and hands them to a local reader.
package remote

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"vizgo/domain/core"
	"vizgo/domain/dataset"
	"vizgo/internal"
	"vizgo/internal/errors"
	"vizgo/ports"

	"github.com/tidwall/gjson"
)

// DefaultMaxBytes caps the size of a downloaded dataset.
const DefaultMaxBytes = 256 << 20

// Config holds HTTP settings for remote datasets
type Config struct {
	Timeout     time.Duration
	Headers     map[string]string
	BearerToken string
	DataPath    string // gjson path to the records array in a JSON response
	MaxBytes    int64
	Logger      *internal.Logger
}

// Reader reads http(s) URLs itself and passes every other path to local.
type Reader struct {
	config     Config
	httpClient *http.Client
	local      ports.DatasetReaderPort
}

var _ ports.DatasetReaderPort = (*Reader)(nil)

// NewReader wraps local with URL support
func NewReader(local ports.DatasetReaderPort, config Config) *Reader {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultMaxBytes
	}
	if config.Logger == nil {
		config.Logger = internal.DefaultLogger
	}
	return &Reader{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		local:      local,
	}
}

// IsURL reports whether path names an http or https resource
func IsURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// Read downloads the dataset at an http(s) URL into a scratch file, then
// reads it like a local file. The format comes from the URL extension, or
// from the Content-Type when the URL has none.
func (r *Reader) Read(ctx context.Context, p string) (*dataset.Frame, error) {
	if !IsURL(p) {
		return r.local.Read(ctx, p)
	}
	u, err := url.Parse(p)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid dataset URL: %v", core.ErrValidation, err)
	}

	start := time.Now()
	body, contentType, err := r.fetch(ctx, u.String())
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		ext = extensionFor(contentType)
	}
	if ext == ".json" && r.config.DataPath != "" {
		records := gjson.GetBytes(body, r.config.DataPath)
		if !records.IsArray() {
			return nil, fmt.Errorf("%w: data path %q is not an array in %s", core.ErrValidation, r.config.DataPath, u.Redacted())
		}
		body = []byte(records.Raw)
	}

	name := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
	if name == "" || name == "/" || name == "." {
		name = "dataset"
	}

	dir, err := os.MkdirTemp("", "vizgo-remote-")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	local := filepath.Join(dir, name+ext)
	if err := os.WriteFile(local, body, 0o600); err != nil {
		return nil, fmt.Errorf("write scratch file: %w", err)
	}

	frame, err := r.local.Read(ctx, local)
	if err != nil {
		return nil, err
	}
	frame.Source = u.Redacted()
	r.config.Logger.Info("[RemoteReader] Fetched %s (%d bytes) in %v", frame.Source, len(body), time.Since(start).Round(time.Millisecond))
	return frame, nil
}

// fetch performs the GET with configured headers and authentication
func (r *Reader) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range r.config.Headers {
		req.Header.Set(k, v)
	}
	if r.config.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.config.BearerToken)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", errors.ExternalServiceError("dataset host", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.config.MaxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.ExternalServiceError("dataset host",
			fmt.Errorf("status %d: %s", resp.StatusCode, snippet(body)))
	}
	if int64(len(body)) > r.config.MaxBytes {
		return nil, "", fmt.Errorf("%w: dataset larger than %d bytes", core.ErrValidation, r.config.MaxBytes)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "text/csv", "application/csv":
		return ".csv"
	case "text/tab-separated-values":
		return ".tsv"
	case "application/json":
		return ".json"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return ".xlsx"
	}
	return ""
}

func snippet(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

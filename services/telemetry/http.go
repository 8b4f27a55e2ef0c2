package telemetry

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sensenode-go/errcode"
	"sensenode-go/internal/logging"
	"sensenode-go/types"
)

const (
	SendDataPath   = "/api/send-data"
	DefaultTimeout = 10 * time.Second

	maxDrain = 4 << 10
)

type HTTPOptions struct {
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

// HTTPUploader POSTs JSON readings to {base}/api/send-data.
type HTTPUploader struct {
	url  string
	link Link
	hc   *http.Client
	log  *slog.Logger
}

func NewHTTP(baseURL string, link Link, opts HTTPOptions) *HTTPUploader {
	hc := opts.Client
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &HTTPUploader{
		url:  Endpoint(baseURL),
		link: link,
		hc:   hc,
		log:  logging.OrDiscard(opts.Logger).With("component", "telemetry", "transport", "http"),
	}
}

// Endpoint joins the collector base URL and the send-data path. A URL that
// already ends in the path is used as is.
func Endpoint(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, SendDataPath) {
		return base
	}
	return base + SendDataPath
}

func (u *HTTPUploader) Upload(ctx context.Context, r types.Reading) error {
	const op = "telemetry.upload"
	if u.link != nil && !u.link.IsConnected() {
		return errcode.Wrap(errcode.NotConnected, op, nil)
	}

	body, err := encode(r)
	if err != nil {
		return errcode.Wrap(errcode.Error, op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(body))
	if err != nil {
		return errcode.Wrap(errcode.Error, op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.hc.Do(req)
	if err != nil {
		return errcode.Wrap(errcode.Transport, op, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &errcode.E{C: errcode.Rejected, Op: op, Status: resp.StatusCode}
	}
	u.log.Debug("uploaded", "status", resp.StatusCode, "temperature", r.Temperature, "humidity", r.Humidity)
	return nil
}

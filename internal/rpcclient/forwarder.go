package rpcclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/geni/gdpr-consent-api/internal/config"
)

// Headers added to forwarded calls
const (
	HeaderClientURN     = "X-Client-URN"
	HeaderCorrelationID = "X-Correlation-ID"
)

// ErrRequestTooLarge is returned when the call body exceeds the configured cap
var ErrRequestTooLarge = errors.New("rpc request body too large")

var errExceedsLimit = errors.New("body exceeds limit")

// Call is one POST to be relayed to the RPC backend
type Call struct {
	Path          string
	ContentType   string
	Body          io.Reader
	ClientURN     string
	CorrelationID string
}

// Response is the relayed upstream answer
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Forwarder relays POST calls that the GDPR site does not serve to the RPC backend
type Forwarder struct {
	httpClient *http.Client
	config     *config.RPCConfig
	logger     *logrus.Logger
}

// NewForwarder creates a new forwarder instance
func NewForwarder(cfg *config.RPCConfig, logger *logrus.Logger) *Forwarder {
	timeout := 60 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &Forwarder{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config: cfg,
		logger: logger,
	}
}

// Enabled reports whether calls should be forwarded at all
func (f *Forwarder) Enabled() bool {
	return f != nil && f.config.Enabled && f.config.BaseURL != ""
}

// Forward posts the call to base_url + path and returns the upstream answer
func (f *Forwarder) Forward(ctx context.Context, call *Call) (*Response, error) {
	body, err := readCapped(call.Body, f.config.MaxRequestBytes)
	if err != nil {
		if errors.Is(err, errExceedsLimit) {
			return nil, ErrRequestTooLarge
		}
		return nil, fmt.Errorf("failed to read request: %w", err)
	}

	url := strings.TrimSuffix(f.config.BaseURL, "/") + call.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		f.logger.WithError(err).Error("Failed to create rpc request")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if call.ContentType != "" {
		req.Header.Set("Content-Type", call.ContentType)
	}
	if call.ClientURN != "" {
		req.Header.Set(HeaderClientURN, call.ClientURN)
	}
	if call.CorrelationID != "" {
		req.Header.Set(HeaderCorrelationID, call.CorrelationID)
	}

	startTime := time.Now()
	resp, err := f.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		f.logger.WithError(err).WithFields(logrus.Fields{
			"url":      url,
			"duration": duration,
		}).Error("RPC backend call failed")
		return nil, fmt.Errorf("rpc backend call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := readCapped(resp.Body, f.config.MaxRequestBytes)
	if err != nil {
		f.logger.WithError(err).Error("Failed to read rpc response")
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	f.logger.WithFields(logrus.Fields{
		"statusCode": resp.StatusCode,
		"duration":   duration,
		"url":        url,
	}).Debug("RPC backend response received")

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        respBody,
	}, nil
}

func readCapped(r io.Reader, limit int64) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errExceedsLimit
	}
	return data, nil
}

package dispatch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dwizi/ops-console/internal/config"
	"github.com/dwizi/ops-console/internal/consoleerr"
	"github.com/dwizi/ops-console/internal/markup"
	"github.com/dwizi/ops-console/internal/session"
)

const requestIDHeader = "X-Request-Id"

type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// Request is one outbound GET. Command may be empty for roster calls.
type Request struct {
	Command    string
	Credential session.Credential
	Extra      url.Values
}

// RawResponse is the unclassified result of a request.
type RawResponse struct {
	RequestID  string
	StatusCode int
	Status     string
	Body       string
}

func (r RawResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func New(cfg config.Config, endpoint string, logger *slog.Logger) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint url is required (set OPSCONSOLE_ENDPOINT_URL)")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("parse endpoint url: %w", err)
	}
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.TLSSkipVerify,
	}
	if cfg.TLSCAFile != "" {
		caBytes, err := os.ReadFile(cfg.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("read tls ca file: %w", err)
		}
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM(caBytes); !ok {
			return nil, fmt.Errorf("parse tls ca file")
		}
		tlsConfig.RootCAs = certPool
	}

	// Zero means no client-side timeout; the transport's own limits apply.
	timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
	return NewWithHTTPClient(endpoint, &http.Client{
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: tlsConfig,
		},
		Timeout: timeout,
	}, logger), nil
}

func NewWithHTTPClient(endpoint string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     httpClient,
		logger:   logger.With("component", "dispatch"),
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Fetch issues one GET and reads the whole body whatever the status. It is never retried.
func (c *Client) Fetch(ctx context.Context, input Request) (RawResponse, error) {
	if !input.Credential.Valid() {
		return RawResponse{}, &consoleerr.Failure{Kind: consoleerr.ErrAuthRequired, Message: "not authenticated, sign in again"}
	}
	target, err := c.buildURL(input)
	if err != nil {
		return RawResponse{}, &consoleerr.Failure{Kind: consoleerr.ErrValidation, Message: err.Error()}
	}
	requestID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return RawResponse{}, &consoleerr.Failure{Kind: consoleerr.ErrValidation, Message: err.Error()}
	}
	req.Header.Set(requestIDHeader, requestID)

	startedAt := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed", "request_id", requestID, "error", err)
		return RawResponse{RequestID: requestID}, &consoleerr.Failure{Kind: consoleerr.ErrNetwork, Message: networkMessage(err)}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.Error("read response body failed", "request_id", requestID, "error", err)
		return RawResponse{RequestID: requestID, StatusCode: res.StatusCode, Status: res.Status}, &consoleerr.Failure{Kind: consoleerr.ErrNetwork, Message: networkMessage(err)}
	}
	c.logger.Info("request settled",
		"request_id", requestID,
		"status", res.StatusCode,
		"bytes", len(body),
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)
	return RawResponse{
		RequestID:  requestID,
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Body:       string(body),
	}, nil
}

// Dispatch sends one operator command and classifies the reply. A non-nil error is
// always a *consoleerr.Failure; when it carries Markup that is the unit to render.
func (c *Client) Dispatch(ctx context.Context, commandText string, credential session.Credential) (Envelope, error) {
	commandText = strings.TrimSpace(commandText)
	if commandText == "" {
		return Envelope{}, &consoleerr.Failure{Kind: consoleerr.ErrValidation, Message: "command is empty"}
	}
	raw, err := c.Fetch(ctx, Request{Command: commandText, Credential: credential})
	if err != nil {
		return Envelope{}, err
	}

	envelope := Classify(raw.Body)
	if envelope.Nonstandard {
		c.logger.Warn("structured response without markup field", "request_id", raw.RequestID)
	}
	if raw.OK() {
		return envelope, nil
	}

	kind := consoleerr.ErrHTTP
	if raw.StatusCode == http.StatusUnauthorized || raw.StatusCode == http.StatusForbidden {
		kind = consoleerr.ErrAuthFailed
	}
	c.logger.Warn("backend returned error status", "request_id", raw.RequestID, "status", raw.StatusCode)
	return Envelope{}, &consoleerr.Failure{
		Kind:    kind,
		Message: raw.Status,
		Status:  raw.StatusCode,
		Markup:  errorMarkup(raw, envelope),
	}
}

func (c *Client) buildURL(input Request) (string, error) {
	parsed, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint url: %w", err)
	}
	query := parsed.Query()
	if input.Command != "" {
		query.Set("command", input.Command)
	}
	query.Set(input.Credential.QueryParam(), input.Credential.Value)
	for key, values := range input.Extra {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func errorMarkup(raw RawResponse, envelope Envelope) string {
	renderable := envelope.Renderable()
	if markup.IsMarkupShaped(renderable) {
		return renderable
	}
	status := strings.TrimSpace(raw.Status)
	if status == "" {
		status = fmt.Sprintf("%d", raw.StatusCode)
	}
	return fmt.Sprintf("<p style='color: #ff6b6b;'>Request Failed: %s. %s</p>", markup.Escape(status), markup.Escape(strings.TrimSpace(raw.Body)))
}

func networkMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

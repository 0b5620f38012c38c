package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yildizm/SignScan/internal/common"
	"github.com/yildizm/SignScan/internal/logger"
	"github.com/yildizm/SignScan/internal/metrics"
)

const (
	tracerName = "signscan/detect"

	// maxResponseSize bounds how much of a response body is read
	maxResponseSize = 16 << 20
)

// Client talks to the traffic-sign detection endpoint
type Client struct {
	config  *Config
	client  *http.Client
	baseURL *url.URL
	metrics *metrics.Metrics
	logger  *logger.Logger
	tracer  trace.Tracer
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithMetrics records every call on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the client logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a new detection client
func New(config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, &ConfigurationError{Field: "base_url", Message: "invalid base URL: " + err.Error()}
	}

	c := &Client{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: baseURL,
		logger:  logger.Discard(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the configured endpoint root
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Analyze uploads the file as the single multipart field "file" and decodes the result.
// Failures are *Error values; there are no retries.
func (c *Client) Analyze(ctx context.Context, file common.SelectedFile) (result *common.AnalysisResult, err error) {
	ctx, span := c.tracer.Start(ctx, "detect.analyze",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("signscan.file.name", file.Name),
			attribute.Int64("signscan.file.size", file.Size),
			attribute.String("signscan.file.type", file.MIMEType),
		),
	)
	startTime := time.Now()

	defer func() {
		elapsed := time.Since(startTime)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(KindOf(err)))
			c.metrics.ObserveAnalysis(string(KindOf(err)), elapsed, 0)
			c.logger.WarnWithFields("analysis failed", []logger.Field{
				logger.File(file.Name), logger.Duration(elapsed), logger.Error(err),
			})
		} else {
			span.SetAttributes(attribute.Int("signscan.detections", result.Count()))
			span.SetStatus(codes.Ok, "")
			c.metrics.ObserveAnalysis("success", elapsed, result.Count())
			c.logger.InfoWithFields("analysis completed", []logger.Field{
				logger.File(file.Name), logger.Duration(elapsed), logger.Count(result.Count()),
			})
		}
		span.End()
	}()

	body, contentType, err := buildUpload(file)
	if err != nil {
		return nil, NewUnknownError("failed to build upload", 0, err)
	}

	endpoint := c.baseURL.JoinPath("/api/analyze")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), body)
	if err != nil {
		return nil, NewUnknownError("failed to create request", 0, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, NewNetworkError("request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, NewNetworkError("failed to read response", err)
	}

	return decodeAnalysis(resp.StatusCode, raw)
}

// decodeAnalysis classifies a response: an "error" field wins regardless of status
func decodeAnalysis(status int, raw []byte) (*common.AnalysisResult, error) {
	var payload analyzeResponse
	decodeErr := json.Unmarshal(raw, &payload)

	if decodeErr == nil && strings.TrimSpace(payload.Error) != "" {
		return nil, NewServerError(payload.Error, status)
	}

	if status < 200 || status > 299 {
		return nil, NewUnknownError(fmt.Sprintf("request failed with status %d", status), status, decodeErr)
	}

	if decodeErr != nil {
		return nil, NewUnknownError("failed to decode response", status, decodeErr)
	}

	detections := payload.Detections
	if detections == nil {
		detections = []common.Detection{}
	}

	return &common.AnalysisResult{
		Detections:     detections,
		ProcessingTime: payload.ProcessingTime,
		FileType:       payload.FileType,
		Message:        payload.Message,
	}, nil
}

// buildUpload encodes the file as a one-part multipart body
func buildUpload(file common.SelectedFile) (io.Reader, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer func() { _ = src.Close() }()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	contentType := file.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}

	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("copy file data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// HealthCheck verifies the endpoint is up
func (c *Client) HealthCheck(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.getJSON(ctx, "/api/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// SupportedSigns lists the sign classes the endpoint can recognize
func (c *Client) SupportedSigns(ctx context.Context) (*SupportedSigns, error) {
	var signs SupportedSigns
	if err := c.getJSON(ctx, "/api/supported-signs", &signs); err != nil {
		return nil, err
	}
	return &signs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	ctx, span := c.tracer.Start(ctx, "detect.get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.route", path)),
	)
	defer span.End()

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return NewUnknownError("failed to create request", 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindNetwork))
		return NewNetworkError("request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return NewNetworkError("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp errorResponse
		if json.Unmarshal(raw, &errorResp) == nil && errorResp.Error != "" {
			return NewServerError(errorResp.Error, resp.StatusCode)
		}
		return NewUnknownError(fmt.Sprintf("%s failed with status %d", path, resp.StatusCode), resp.StatusCode, nil)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return NewUnknownError("failed to decode response", resp.StatusCode, err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

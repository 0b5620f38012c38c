package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yildizm/SignScan/internal/common"
	"github.com/yildizm/SignScan/internal/detect"
	"github.com/yildizm/SignScan/internal/intake"
	"github.com/yildizm/SignScan/internal/logger"
	"github.com/yildizm/SignScan/internal/metrics"
	"github.com/yildizm/SignScan/internal/preview"
)

// ErrAnalyzeRefused is returned when analysis is not currently allowed
var ErrAnalyzeRefused = errors.New("analysis not allowed in the current state")

// Previewer creates and releases preview handles
type Previewer interface {
	Create(file common.SelectedFile) (*preview.Handle, error)
	Release(h *preview.Handle) bool
}

// Analyzer submits a file to the detection endpoint
type Analyzer interface {
	Analyze(ctx context.Context, file common.SelectedFile) (*common.AnalysisResult, error)
}

// Request is the one outstanding analysis call
type Request struct {
	Token string
	File  common.SelectedFile

	ctx    context.Context
	cancel context.CancelFunc
}

// Completion is what a finished request reports back to the controller
type Completion struct {
	Token  string
	Result *common.AnalysisResult
	Err    error
}

// Run performs the request. It is the only part of the controller that may
// execute off the event loop; it touches no controller state.
func (r *Request) Run(a Analyzer) Completion {
	result, err := a.Analyze(r.ctx, r.File)
	return Completion{Token: r.Token, Result: result, Err: err}
}

// Controller coordinates intake, previews and analysis. It is not safe for
// concurrent use: every method runs on the owner's event loop.
type Controller struct {
	intake   *intake.Intake
	previews Previewer

	state    State
	inflight *Request
	current  string

	newToken func() string
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithMetrics records stale completions on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithTokenSource replaces the uuid request tokens
func WithTokenSource(next func() string) Option {
	return func(c *Controller) {
		c.newToken = next
	}
}

// New creates an idle controller
func New(in *intake.Intake, previews Previewer, opts ...Option) *Controller {
	c := &Controller{
		intake:   in,
		previews: previews,
		state:    Initial(),
		newToken: uuid.NewString,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state
func (c *Controller) State() State {
	return c.state
}

// Busy reports whether a request, current or superseded, is outstanding
func (c *Controller) Busy() bool {
	return c.inflight != nil
}

// Submit offers candidates from a drop or pick. Only the first is considered.
// A rejected candidate leaves the state untouched. Accepting one is permitted
// from any phase; an in-flight request is cancelled and its result will be discarded.
func (c *Controller) Submit(candidates ...intake.Candidate) error {
	file, err := c.intake.Select(candidates...)
	if err != nil {
		return err
	}

	h, err := c.previews.Create(file)
	if err != nil {
		return &intake.SelectionError{Name: file.Name, Err: fmt.Errorf("%w: %v", intake.ErrUnreadable, err)}
	}

	if c.state.Preview != nil {
		c.previews.Release(c.state.Preview)
	}

	if c.inflight != nil && c.current != "" {
		c.logger.InfoWithFields("superseding in-flight analysis", []logger.Field{
			logger.Token(c.current), logger.File(c.inflight.File.Name),
		})
		c.inflight.cancel()
		c.current = ""
		c.state.Settling = true
	}

	c.state = withSelection(c.state, &file, h)
	c.logger.DebugWithFields("file selected", []logger.Field{
		logger.File(file.Name), logger.F("type", file.MIMEType), logger.F("size", file.Size),
	})
	return nil
}

// Analyze starts a request for the selected file. It is refused with no file,
// while analyzing, or while a superseded request has not settled.
func (c *Controller) Analyze(parent context.Context) (*Request, bool) {
	if c.state.File == nil || c.state.Phase == PhaseAnalyzing || c.inflight != nil {
		return nil, false
	}

	ctx, cancel := context.WithCancel(parent)
	req := &Request{
		Token:  c.newToken(),
		File:   *c.state.File,
		ctx:    ctx,
		cancel: cancel,
	}

	c.inflight = req
	c.current = req.Token
	c.state = begin(c.state)

	c.logger.DebugWithFields("analysis started", []logger.Field{logger.Token(req.Token), logger.File(req.File.Name)})
	return req, true
}

// Complete applies a finished request. It returns false when the completion is
// stale, in which case the state is unchanged apart from settling.
func (c *Controller) Complete(token string, result *common.AnalysisResult, err error) bool {
	if c.inflight != nil && c.inflight.Token == token {
		c.inflight.cancel()
		c.inflight = nil
		c.state = settled(c.state)
	}

	if token == "" || token != c.current {
		c.metrics.StaleResponse()
		c.logger.DebugWithFields("discarding stale completion", []logger.Field{logger.Token(token)})
		return false
	}
	c.current = ""

	switch {
	case err != nil:
		c.state = fail(c.state, &Failure{Message: detect.UserMessage(err), Kind: detect.KindOf(err)})
	case result == nil:
		c.state = fail(c.state, &Failure{Message: detect.GenericMessage, Kind: detect.KindUnknown})
	default:
		c.state = succeed(c.state, result)
	}
	return true
}

// AnalyzeSync runs one analysis on the caller's goroutine, for headless use.
// The returned error is the request's failure; the state carries its user-facing form.
func (c *Controller) AnalyzeSync(ctx context.Context, a Analyzer) (State, error) {
	req, ok := c.Analyze(ctx)
	if !ok {
		return c.state, ErrAnalyzeRefused
	}

	done := req.Run(a)
	c.Complete(done.Token, done.Result, done.Err)
	return c.state, done.Err
}

// Close cancels any outstanding request and releases the preview
func (c *Controller) Close() {
	if c.inflight != nil {
		c.inflight.cancel()
		c.inflight = nil
	}
	c.current = ""

	if c.state.Preview != nil {
		c.previews.Release(c.state.Preview)
	}
	c.state = Initial()
}

// Package stream serves trajectories incrementally over a websocket.
// Clients connect to GET /api/v1/trajectory/stream and send one JSON
// trajectory job (the same body POST /api/v1/trajectory accepts). The
// server replies with:
//
//	{"type":"start","run_id":"...","samples":91,"frame":"EME2000","force":"twobody"}
//	{"type":"sample","t":"2025-08-01T00:00:00.000Z","elapsed":0,"position":[...],"velocity":[...]}
//	...
//	{"type":"complete","run_id":"...","samples":91}
//
// or an {"type":"error",...} message in place of the remainder. Pings are
// sent every KeepaliveInterval while a run is in progress.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dstuartbryant/spacewego/internal/httputil"
	"github.com/dstuartbryant/spacewego/internal/metrics"
	"github.com/dstuartbryant/spacewego/internal/propagation"
	"github.com/dstuartbryant/spacewego/internal/trajectory"
)

const (
	// maxRequestBytes bounds the job message read from the client.
	maxRequestBytes = 64 << 10
	// requestWait is how long a client has to send its job after connecting.
	requestWait = 10 * time.Second
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 4).
	MaxTotal           int           // Global stream cap (default: 1000).
	KeepaliveInterval  time.Duration // Ping interval (default: 30s).
	Timeout            time.Duration // Per-run wall clock limit, zero for none.
	TrustProxy         bool
	AllowOrigins       []string // "*" accepts any origin
	Limits             trajectory.Limits
}

// Handler manages websocket trajectory streams.
type Handler struct {
	config   Config
	limiter  *streamLimiter
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(config Config, logger *slog.Logger) *Handler {
	if config.MaxConcurrentPerIP <= 0 {
		config.MaxConcurrentPerIP = 4
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	h := &Handler{
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP, config.MaxTotal),
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients) and origins listed in the configuration.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.config.AllowOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// ServeHTTP upgrades the connection and streams one trajectory.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Rate limiting: enforce concurrent stream limit per IP.
	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		metrics.RecordRateLimited(r.URL.Path)
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}
	defer h.limiter.release(ip)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		metrics.IncStreamErrors("upgrade")
		h.logger.Debug("websocket upgrade failed", "remote_ip", ip, "error", err)
		return
	}
	defer conn.Close()

	metrics.StreamOpened()
	startTime := time.Now()
	c := &client{conn: conn, ip: ip, logger: h.logger}
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.UserAgent(),
	)
	defer func() {
		metrics.StreamClosed()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"messages", c.messagesSent,
			"bytes", c.bytesSent,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	plan, err := h.readPlan(c)
	if err != nil {
		metrics.IncStreamErrors("bad_request")
		h.logger.Debug("stream request rejected", "remote_ip", ip, "error", err)
		h.sendError(c, err, 0)
		c.close(websocket.ClosePolicyViolation, "invalid request")
		return
	}
	h.run(r.Context(), c, plan)
}

// readPlan reads the client's job and resolves it against the limits.
func (h *Handler) readPlan(c *client) (trajectory.Plan, error) {
	c.conn.SetReadLimit(maxRequestBytes)
	if err := c.conn.SetReadDeadline(time.Now().Add(requestWait)); err != nil {
		return trajectory.Plan{}, err
	}
	job := trajectory.DefaultJob()
	if err := c.conn.ReadJSON(&job); err != nil {
		return trajectory.Plan{}, fmt.Errorf("reading request: %w", err)
	}
	plan, err := job.Plan()
	if err != nil {
		return trajectory.Plan{}, err
	}
	if err := h.config.Limits.Apply(&plan); err != nil {
		return trajectory.Plan{}, err
	}
	return plan, nil
}

// run propagates the plan, writing each sample as it is produced.
func (h *Handler) run(parent context.Context, c *client, plan trajectory.Plan) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if h.config.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, h.config.Timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	r, err := propagation.NewRun(plan.Initial, plan.Duration, plan.Interval, plan.Config)
	if err != nil {
		h.sendError(c, err, 0)
		c.close(websocket.ClosePolicyViolation, "invalid request")
		return
	}

	go h.readPump(c, cancel)
	stop := h.keepalive(c, cancel)
	defer stop()

	runID := uuid.NewString()
	start := startMessage{
		Type:    "start",
		RunID:   runID,
		Samples: r.Len(),
		Frame:   plan.Initial.Frame.String(),
		Force:   r.Force().String(),
	}
	if err := c.sendJSON(start); err != nil {
		metrics.IncStreamErrors("send_error")
		return
	}

	began := time.Now()
	sent := 0
	var sendErr error
	err = r.Stream(ctx, func(s propagation.Sample) error {
		if err := c.sendJSON(sampleMessage{Type: "sample", Record: trajectory.NewRecord(s)}); err != nil {
			sendErr = err
			return err
		}
		sent++
		return nil
	})

	outcome := propagation.Outcome(err)
	if sendErr != nil {
		outcome = metrics.OutcomeCancelled
	}
	metrics.RecordPropagation(r.Force().String(), outcome, time.Since(began), sent)

	switch {
	case sendErr != nil:
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error", "remote_ip", c.ip, "run_id", runID, "error", sendErr)
	case err != nil:
		h.logger.Info("stream run failed",
			"remote_ip", c.ip,
			"run_id", runID,
			"outcome", outcome,
			"samples", sent,
			"error", err,
		)
		h.sendError(c, err, sent)
		c.close(websocket.CloseNormalClosure, outcome)
	default:
		if err := c.sendJSON(completeMessage{Type: "complete", RunID: runID, Samples: sent}); err != nil {
			metrics.IncStreamErrors("send_error")
			return
		}
		c.close(websocket.CloseNormalClosure, "")
	}
}

// readPump drains incoming frames so pong and close frames are processed.
// Any read error (including the peer closing) cancels the run.
func (h *Handler) readPump(c *client, cancel context.CancelFunc) {
	defer cancel()
	wait := 2 * h.config.KeepaliveInterval
	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

// keepalive pings the client until the returned stop function is called.
func (h *Handler) keepalive(c *client, cancel context.CancelFunc) (stop func()) {
	done := make(chan struct{})
	ticker := time.NewTicker(h.config.KeepaliveInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					metrics.IncStreamErrors("send_error")
					h.logger.Warn("stream keepalive error", "remote_ip", c.ip, "error", err)
					cancel()
					return
				}
			}
		}
	}()
	return func() { close(done) }
}

func (h *Handler) sendError(c *client, err error, completed int) {
	msg := errorMessage{Type: "error", Error: err.Error(), SamplesCompleted: completed}
	var be *trajectory.BudgetError
	if errors.As(err, &be) {
		msg.MaxSamples = be.Max
	}
	if errors.Is(err, context.DeadlineExceeded) {
		msg.Error = "propagation timed out"
	}
	if sendErr := c.sendJSON(msg); sendErr != nil {
		metrics.IncStreamErrors("send_error")
	}
}

// Stream message payload types.

type startMessage struct {
	Type    string `json:"type"`
	RunID   string `json:"run_id"`
	Samples int    `json:"samples"`
	Frame   string `json:"frame"`
	Force   string `json:"force"`
}

type sampleMessage struct {
	Type string `json:"type"`
	trajectory.Record
}

type completeMessage struct {
	Type    string `json:"type"`
	RunID   string `json:"run_id"`
	Samples int    `json:"samples"`
}

type errorMessage struct {
	Type             string `json:"type"`
	Error            string `json:"error"`
	SamplesCompleted int    `json:"samples_completed"`
	MaxSamples       int    `json:"max_samples,omitempty"`
}

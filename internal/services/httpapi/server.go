// Package httpapi accepts wake commands over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fgeck/gowol/internal/metrics"
	"github.com/fgeck/gowol/internal/models"
	"github.com/fgeck/gowol/internal/services/runner"
	"github.com/fgeck/gowol/internal/services/wol"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	maxBodySize     = 1 << 10
	shutdownTimeout = 5 * time.Second
)

// Server is the HTTP command source.
type Server struct {
	listen  string
	route   string
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// New creates an HTTP source serving POST on the route derived from topic.
func New(logger zerolog.Logger, cfg models.HTTPConfig, topic string, m *metrics.Metrics) *Server {
	return &Server{
		listen:  cfg.Listen,
		route:   "/" + strings.TrimPrefix(topic, "/"),
		metrics: m,
		logger:  logger,
	}
}

// Name returns the source name.
func (s *Server) Name() string {
	return "http"
}

// Route returns the path wake commands are posted to.
func (s *Server) Route() string {
	return s.route
}

type wakeRequest struct {
	MAC string `json:"mac" binding:"required"`
}

type wakeResponse struct {
	MAC        string `json:"mac"`
	Target     string `json:"target"`
	BytesSent  int    `json:"bytes_sent"`
	DurationMS int64  `json:"duration_ms"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// Handler builds the gin engine. Exposed so tests can drive it without a listener.
func (s *Server) Handler(handle runner.HandleFunc) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.POST(s.route, s.wake(handle))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	return r
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context, handle runner.HandleFunc) error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listen, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(handle),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Str("route", s.route).
		Msg("HTTP command endpoint listening")

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("HTTP server shutdown incomplete")
		}
		<-errc
		return ctx.Err()
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) wake(handle runner.HandleFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		mac, err := readMAC(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Reason: "bad_request"})
			return
		}

		result, err := handle(c.Request.Context(), mac)
		if err != nil {
			status := http.StatusBadGateway
			if wol.IsParseError(err) {
				status = http.StatusBadRequest
			}
			c.JSON(status, errorResponse{Error: err.Error(), Reason: wol.FailureReason(err)})
			return
		}

		c.JSON(http.StatusOK, wakeResponse{
			MAC:        result.MAC,
			Target:     result.Target,
			BytesSent:  result.BytesSent,
			DurationMS: result.Duration.Milliseconds(),
		})
	}
}

// readMAC accepts either a JSON {"mac": "..."} body or the MAC as plain text.
func readMAC(c *gin.Context) (string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

	if c.ContentType() == gin.MIMEJSON {
		var req wakeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", fmt.Errorf("invalid request body: %w", err)
		}
		return req.MAC, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}
	mac := strings.TrimSpace(string(body))
	if mac == "" {
		return "", errors.New("empty request body")
	}
	return mac, nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client", c.ClientIP()).
			Msg("HTTP request")
	}
}

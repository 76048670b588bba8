// Package server exposes the bot over HTTP: a health probe and, in webhook
// mode, the endpoint Telegram posts updates to.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Размер буфера апдейтов, как у tgbotapi.ListenForWebhook
const updatesBuffer = 100

// UpdateDecoder reads a Telegram update from a webhook request.
// *tgbotapi.BotAPI implements it.
type UpdateDecoder interface {
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

type StatsProvider interface {
	Stats() map[string]any
}

type Config struct {
	Addr string
	// Пустой путь выключает прием вебхуков
	WebhookPath     string
	ShutdownTimeout time.Duration
}

type Server struct {
	cfg     Config
	decoder UpdateDecoder
	stats   StatsProvider
	updates chan tgbotapi.Update
	engine  *gin.Engine
	log     zerolog.Logger
}

// New builds the HTTP surface. decoder may be nil when updates come from
// long polling; then only /health is served.
func New(cfg Config, decoder UpdateDecoder, stats StatsProvider, log zerolog.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{
		cfg:     cfg,
		decoder: decoder,
		stats:   stats,
		updates: make(chan tgbotapi.Update, updatesBuffer),
		log:     log,
	}

	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(s.requestLogger(), gin.Recovery())

	r.GET("/health", s.health)
	if decoder != nil && cfg.WebhookPath != "" {
		r.POST(cfg.WebhookPath, s.webhook)
	}

	s.engine = r

	return s
}

// Updates returns updates received through the webhook.
func (s *Server) Updates() <-chan tgbotapi.Update {
	return s.updates
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until ctx is done, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("http server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Server) health(c *gin.Context) {
	resp := gin.H{"status": "alive"}
	if s.stats != nil {
		for k, v := range s.stats.Stats() {
			resp[k] = v
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) webhook(c *gin.Context) {
	update, err := s.decoder.HandleUpdate(c.Request)
	if err != nil {
		s.log.Warn().Err(err).Msg("bad webhook request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	select {
	case s.updates <- *update:
		c.Status(http.StatusOK)
	case <-c.Request.Context().Done():
		// Телеграм повторит доставку
		c.Status(http.StatusServiceUnavailable)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

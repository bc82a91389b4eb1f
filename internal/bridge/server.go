package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/app"
	"github.com/claimsense/claimsense/internal/logging"
	"github.com/claimsense/claimsense/internal/report"
	"github.com/claimsense/claimsense/internal/version"
)

// DefaultAddr is where `claimsense serve` listens
const DefaultAddr = "127.0.0.1:8765"

// ReportWriter streams a PDF report for a result
type ReportWriter interface {
	Write(w io.Writer, result *analysis.Result) error
}

// Config holds the server configuration
type Config struct {
	Addr string
	// AllowedOrigins lists browser origins allowed to connect. Empty allows
	// same-host origins only (the gorilla default check).
	AllowedOrigins []string
}

// Server exposes the application handlers over a websocket
type Server struct {
	config   Config
	app      *app.App
	hub      *Hub
	reports  ReportWriter
	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server. a must have been created with hub as its View.
func New(config Config, a *app.App, hub *Hub, reports ReportWriter) *Server {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:  config,
		app:     a,
		hub:     hub,
		reports: reports,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	if len(config.AllowedOrigins) > 0 {
		s.upgrader.CheckOrigin = s.checkOrigin
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP routes:
//
//	GET /ws          websocket bridge
//	GET /report.pdf  report of the last result
//	GET /healthz     liveness
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /report.pdf", s.handleReport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Listen binds the configured address
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// Serve accepts connections until ctx is cancelled, then shuts down
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	logging.Info("Bridge listening", zap.String("addr", s.Addr()))

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping bridge...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting connections, disconnects every client and waits
// for in-flight handlers.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.cancel()
	s.hub.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All bridge connections closed")
	case <-ctx.Done():
		logging.Warn("Bridge shutdown timeout, forcing close")
		return ctx.Err()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	for _, allowed := range s.config.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}

	c := &client{conn: conn, remote: r.RemoteAddr, send: make(chan []byte, sendBuffer)}
	if !s.hub.register(c) {
		_ = conn.Close()
		return
	}
	logging.Info("Bridge client connected", zap.String("remote_addr", c.remote))

	// New clients start from the current state
	s.hub.sendTo(c, navigationEvent(s.app.Navigation()))
	if last := s.app.LastResult(); last != nil {
		s.hub.sendTo(c, resultEvent(*last))
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		c.writePump()
	}()
	go func() {
		defer s.wg.Done()
		c.readPump(s.handleCommand)
		s.hub.unregister(c)
		logging.Info("Bridge client disconnected", zap.String("remote_addr", c.remote))
	}()
}

func (s *Server) handleCommand(c *client, data []byte) {
	cmd, err := ParseCommand(data)
	if err != nil {
		logging.LogRawBytes("Invalid bridge command", data)
		s.hub.sendTo(c, notificationEvent(app.Notification{Level: app.LevelError, Message: err.Error()}))
		return
	}
	logging.LogBridgeEvent(c.remote, "in", cmd.Type)

	switch cmd.Type {
	case CmdNavigate:
		section, err := app.ParseSection(cmd.Section)
		if err != nil {
			s.hub.sendTo(c, notificationEvent(app.Notification{Level: app.LevelError, Message: err.Error()}))
			return
		}
		s.app.Navigate(section)

	case CmdAnalyze:
		s.goHandle(func(ctx context.Context) {
			_, _ = s.app.SubmitAnalysis(ctx, cmd.Text)
		})

	case CmdExport:
		s.goHandle(func(context.Context) {
			_, _ = s.app.ExportReport()
		})

	case CmdSaveSettings:
		_, _ = s.app.SaveSettings(s.ctx, cmd.Username, cmd.DarkMode)

	case CmdLoadSettings:
		_, _ = s.app.LoadSettings(s.ctx)

	default:
		s.hub.sendTo(c, notificationEvent(app.Notification{
			Level:   app.LevelError,
			Message: fmt.Sprintf("unknown command %q", cmd.Type),
		}))
	}
}

// goHandle runs a slow handler off the read loop so the connection keeps
// accepting commands.
func (s *Server) goHandle(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	last := s.app.LastResult()
	if last == nil {
		http.Error(w, report.ErrNoAnalysisAvailable.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.DefaultFileName))
	if err := s.reports.Write(w, last); err != nil {
		logging.Error("Failed to stream report", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "ok %s\n", version.Version)
}

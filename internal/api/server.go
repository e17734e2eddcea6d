package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zrougamed/cerberus-watch/internal/databases"
	"github.com/zrougamed/cerberus-watch/internal/logger"
	"github.com/zrougamed/cerberus-watch/internal/metrics"
	"github.com/zrougamed/cerberus-watch/internal/models"
	"github.com/zrougamed/cerberus-watch/internal/monitor"

	_ "github.com/zrougamed/cerberus-watch/docs" // swagger docs
)

const (
	VERSION = "1.0.0"

	// SSE comment sent to idle dashboard clients so dead connections are noticed
	KEEPALIVE_INTERVAL = 15 * time.Second
	VIEW_BUFFER        = 16
)

// Server represents the API server
type Server struct {
	app       *fiber.App
	monitor   *monitor.Monitor
	topology  databases.Topology
	startTime time.Time
	logger    *logger.Logger

	unsubscribe func()

	// SSE clients for dashboard streaming
	viewClients   map[string]chan models.View
	viewClientsMu sync.RWMutex
}

// NewServer creates a new API server instance
// @title Cerberus Watch API
// @version 1.0
// @description Operator API for cerberus-watch, a live monitor for network attack simulations.
// @contact.name Cerberus Project
// @contact.url https://github.com/zrougamed/cerberus-watch
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
func NewServer(mon *monitor.Monitor, topology databases.Topology) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Cerberus Watch API",
		ServerHeader:          "Cerberus",
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	server := &Server{
		app:         app,
		monitor:     mon,
		topology:    topology,
		startTime:   time.Now(),
		logger:      logger.NewLogger("API"),
		viewClients: make(map[string]chan models.View),
	}

	server.setupRoutes()
	server.unsubscribe = mon.OnChange(server.BroadcastView)

	return server
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(ErrorResponse{
		Error: err.Error(),
		Code:  strconv.Itoa(code),
	})
}

func (s *Server) setupRoutes() {
	// Swagger documentation
	s.app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 routes
	api := s.app.Group("/api/v1")

	api.Get("/health", s.healthCheck)
	api.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Dashboard
	api.Get("/dashboard", s.getDashboard)
	api.Get("/dashboard/stream", s.streamDashboard)
	api.Get("/events", s.listEvents)
	api.Get("/topology", s.getTopology)

	// Control
	api.Post("/simulations", s.startSimulation)
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	s.logger.Infof("Starting API server on %s", addr)
	s.logger.Infof("Swagger UI available at http://%s/swagger/index.html", addr)
	return s.app.Listen(addr)
}

// Shutdown detaches from the monitor, ends every dashboard stream and stops
// the server.
func (s *Server) Shutdown() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	s.viewClientsMu.Lock()
	for id, ch := range s.viewClients {
		delete(s.viewClients, id)
		close(ch)
		metrics.ViewClients.Dec()
	}
	s.viewClientsMu.Unlock()

	return s.app.ShutdownWithTimeout(5 * time.Second)
}

// BroadcastView sends a view to all SSE clients
func (s *Server) BroadcastView(view models.View) {
	s.viewClientsMu.RLock()
	defer s.viewClientsMu.RUnlock()

	for id, ch := range s.viewClients {
		select {
		case ch <- view:
		default:
			s.logger.Debugf("Dashboard client %s is behind, dropping view", id)
		}
	}
}

func (s *Server) addViewClient() (string, chan models.View) {
	id := uuid.NewString()
	ch := make(chan models.View, VIEW_BUFFER)

	s.viewClientsMu.Lock()
	s.viewClients[id] = ch
	s.viewClientsMu.Unlock()
	metrics.ViewClients.Inc()

	return id, ch
}

func (s *Server) removeViewClient(id string) {
	s.viewClientsMu.Lock()
	defer s.viewClientsMu.Unlock()

	if ch, ok := s.viewClients[id]; ok {
		delete(s.viewClients, id)
		close(ch)
		metrics.ViewClients.Dec()
	}
}

func (s *Server) viewClientCount() int {
	s.viewClientsMu.RLock()
	defer s.viewClientsMu.RUnlock()
	return len(s.viewClients)
}

// =============================================================================
// Response Types
// =============================================================================

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid duration: 400"`
	Code  string `json:"code" example:"400"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status         string `json:"status" example:"healthy"`
	Uptime         int64  `json:"uptime" example:"86400"`
	Version        string `json:"version" example:"1.0.0"`
	SessionState   string `json:"session_state" example:"streaming"`
	DashboardPeers int    `json:"dashboard_peers" example:"1"`
}

// StartSimulationRequest is the body of POST /simulations. A missing
// duration uses the operator's last value.
type StartSimulationRequest struct {
	Duration *int `json:"duration" example:"15"`
}

// EventListResponse represents the event log
type EventListResponse struct {
	Total    int               `json:"total" example:"12"`
	Capacity int               `json:"capacity" example:"50"`
	Events   []models.LogEntry `json:"events"`
}

// TopologyHost is a topology host with its current highlight
type TopologyHost struct {
	databases.Host
	Highlight models.HighlightState `json:"highlight" example:"none"`
}

// TopologyResponse represents the drawn network topology
type TopologyResponse struct {
	Attacker string         `json:"attacker" example:"H6"`
	Hosts    []TopologyHost `json:"hosts"`
}

// =============================================================================
// Handlers
// =============================================================================

// healthCheck godoc
// @Summary Health check
// @Description Returns service health status
// @Tags Status
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:         "healthy",
		Uptime:         int64(time.Since(s.startTime).Seconds()),
		Version:        VERSION,
		SessionState:   s.monitor.View().State.String(),
		DashboardPeers: s.viewClientCount(),
	})
}

// getDashboard godoc
// @Summary Get the dashboard
// @Description Returns counters, charts, progress, topology highlight and event log
// @Tags Dashboard
// @Accept json
// @Produce json
// @Success 200 {object} models.View
// @Router /dashboard [get]
func (s *Server) getDashboard(c *fiber.Ctx) error {
	return c.JSON(s.monitor.View())
}

// streamDashboard godoc
// @Summary Stream dashboard updates (SSE)
// @Description Server-Sent Events stream; one view event on connect and after every change
// @Tags Dashboard, Events
// @Produce text/event-stream
// @Success 200 {string} string "SSE stream"
// @Router /dashboard/stream [get]
func (s *Server) streamDashboard(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	id, views := s.addViewClient()
	current := s.monitor.View()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer s.removeViewClient(id)

		if err := writeViewEvent(w, current); err != nil {
			return
		}

		keepalive := time.NewTicker(KEEPALIVE_INTERVAL)
		defer keepalive.Stop()

		for {
			select {
			case view, ok := <-views:
				if !ok {
					return
				}
				if err := writeViewEvent(w, view); err != nil {
					return
				}
			case <-keepalive.C:
				if _, err := w.WriteString(": keepalive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}

func writeViewEvent(w *bufio.Writer, view models.View) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: view\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}

// listEvents godoc
// @Summary List the event log
// @Description Returns operator event log entries, newest first
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param limit query int false "Maximum entries (0 for all)" default(0)
// @Param severity query string false "Filter by severity" Enums(info, success, warning, error)
// @Success 200 {object} EventListResponse
// @Failure 400 {object} ErrorResponse
// @Router /events [get]
func (s *Server) listEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must not be negative")
	}

	severity := models.Severity(c.Query("severity", ""))
	switch severity {
	case "", models.SeverityInfo, models.SeveritySuccess, models.SeverityWarning, models.SeverityError:
	default:
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown severity %q", severity))
	}

	log := s.monitor.Log()
	entries := log.Entries()
	events := make([]models.LogEntry, 0, len(entries))
	for _, e := range entries {
		if severity != "" && e.Severity != severity {
			continue
		}
		events = append(events, e)
		if limit > 0 && len(events) >= limit {
			break
		}
	}

	return c.JSON(EventListResponse{
		Total:    len(events),
		Capacity: log.Capacity(),
		Events:   events,
	})
}

// getTopology godoc
// @Summary Get the topology
// @Description Returns the drawn hosts and their current highlight
// @Tags Dashboard
// @Accept json
// @Produce json
// @Success 200 {object} TopologyResponse
// @Router /topology [get]
func (s *Server) getTopology(c *fiber.Ctx) error {
	view := s.monitor.View()

	hosts := make([]TopologyHost, 0, len(s.topology.Hosts))
	for _, h := range s.topology.Hosts {
		mark := models.HighlightNone
		if view.Display != nil {
			if m, ok := view.Display.Topology[h.ID]; ok {
				mark = m
			}
		}
		hosts = append(hosts, TopologyHost{Host: h, Highlight: mark})
	}

	return c.JSON(TopologyResponse{
		Attacker: s.topology.Attacker,
		Hosts:    hosts,
	})
}

// startSimulation godoc
// @Summary Start a simulation
// @Description Validates the duration and asks the backend to start a run; the dashboard follows it
// @Tags Control
// @Accept json
// @Produce json
// @Param request body StartSimulationRequest false "Run duration in seconds (1-300)"
// @Success 202 {object} models.View
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /simulations [post]
func (s *Server) startSimulation(c *fiber.Ctx) error {
	var req StartSimulationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	duration := s.monitor.DefaultDuration()
	if req.Duration != nil {
		duration = *req.Duration
	}

	if err := s.monitor.StartSimulation(duration); err != nil {
		switch {
		case errors.Is(err, monitor.ErrInvalidDuration):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, monitor.ErrClosed):
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		default:
			return err
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(s.monitor.View())
}

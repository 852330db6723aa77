package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/knowledgeai/knowledge-console/internal/guard"
	fiberlogger "github.com/knowledgeai/knowledge-console/internal/logger/adapter/fiber"
	"github.com/knowledgeai/knowledge-console/internal/web/handler"
	"github.com/knowledgeai/knowledge-console/internal/web/handler/chat"
	"github.com/knowledgeai/knowledge-console/internal/web/handler/dashboard"
	"github.com/knowledgeai/knowledge-console/internal/web/handler/documents"
	"github.com/knowledgeai/knowledge-console/internal/web/handler/index"
	"github.com/knowledgeai/knowledge-console/internal/web/handler/login"
	"github.com/knowledgeai/knowledge-console/internal/web/handler/logout"
	"github.com/knowledgeai/knowledge-console/internal/web/handler/register"
	"github.com/knowledgeai/knowledge-console/internal/web/live"
	"github.com/knowledgeai/knowledge-console/internal/web/middleware/access"
)

const (
	// HealthPath answers the liveness check.
	HealthPath = "/healthz"

	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	deps         *handler.Deps
	hub          *live.Hub
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown blocks until SIGINT or SIGTERM and stops the web service gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown stops the web service. Unless fast shutdown is set the liveness
// check fails for the configured time first.
func (s *Service) Shutdown() {
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.deps.Cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.deps.Cfg.Webserver.ShutDownTime) * time.Second)
	}

	// open event streams would keep the server from stopping
	s.hub.Close()

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// Health answers 200 while alive and 503 during shutdown.
func (s *Service) Health(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("ok")
}

// New creates a new web service. hub receives the event stream route and is
// closed on shutdown.
func New(deps *handler.Deps, hub *live.Hub, routes *guard.Routes) *Service {
	if !deps.Valid() {
		panic(handler.ErrNilDepsFatalLogMsg)
	}

	if hub == nil {
		panic("live hub cannot be nil")
	}

	cfg := deps.Cfg

	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize:        8192,
			AppName:               cfg.Title,
			CaseSensitive:         true,
			Prefork:               false,
			Immutable:             true,
			DisableStartupMessage: true,
			Views:                 templateEngine,
		},
	)

	service := &Service{
		App:  app,
		deps: deps,
		hub:  hub,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: HealthPath,
	}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     cfg.Webserver.BrowseStatic,
			},
		),
	)

	app.Get(HealthPath, service.Health)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))
	app.Get(live.Path, hub.Handler)

	app.Use(access.New(access.Config{Session: deps.Session, Routes: routes}))

	for name, h := range map[string]handler.Service{
		"index":     &index.Handler,
		"login":     &login.Handler,
		"register":  &register.Handler,
		"logout":    &logout.Handler,
		"dashboard": &dashboard.Handler,
		"documents": &documents.Handler,
		"chat":      &chat.Handler,
	} {
		if err := h.Init(app, deps); err != nil {
			log.Fatal().Err(err).Str("handler", name).Msg("failed to init handler")
		}
	}

	return service
}

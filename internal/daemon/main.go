// Package daemon wires the console: storage, session, request layer, web service.
package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/knowledgeai/knowledge-console/internal/config"
	"github.com/knowledgeai/knowledge-console/internal/guard"
	"github.com/knowledgeai/knowledge-console/internal/web"
	"github.com/knowledgeai/knowledge-console/internal/web/handler"
	"github.com/knowledgeai/knowledge-console/internal/web/live"
)

// Daemon represents the main application daemon.
type Daemon struct {
	core       *Core
	webService *web.Service
}

// Start bootstraps the session in the background and serves the web console
// until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	defer func() {
		if err := d.core.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close token storage")
		}
	}()

	// the console renders the loading view until bootstrap settled
	go d.core.Auth.Bootstrap(context.Background())

	ws := d.core.Cfg.Webserver
	addr := fmt.Sprintf("%s:%d", ws.Host, ws.Port)

	go d.webService.WaitShutdown()

	return d.webService.Start(addr)
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	routes := guard.DefaultRoutes()

	// the hub is the navigator of the request layer, it is created before
	// the store exists and bound afterwards
	var hub *live.Hub

	core, err := NewCore(cfg, func() {
		if hub != nil {
			hub.ForceLogin()
		}
	})
	if err != nil {
		return nil, err
	}

	hub = live.NewHub(core.Session, routes)

	deps := &handler.Deps{
		Cfg:       cfg,
		Session:   core.Session,
		Auth:      core.Auth,
		Knowledge: core.Knowledge,
	}

	return &Daemon{
		core:       core,
		webService: web.New(deps, hub, routes),
	}, nil
}

package daemon

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/knowledgeai/knowledge-console/internal/api"
	"github.com/knowledgeai/knowledge-console/internal/auth"
	"github.com/knowledgeai/knowledge-console/internal/config"
	"github.com/knowledgeai/knowledge-console/internal/db"
	"github.com/knowledgeai/knowledge-console/internal/db/controller/kv"
	"github.com/knowledgeai/knowledge-console/internal/knowledge"
	"github.com/knowledgeai/knowledge-console/internal/session"
	"github.com/knowledgeai/knowledge-console/internal/tokenstore"
)

// ErrConfigNil is returned when no configuration was passed.
var ErrConfigNil = errors.New("config is nil")

// closableStorage is token storage that owns resources released by Close.
type closableStorage interface {
	tokenstore.Storage
	Close() error
}

// Core is the authentication core shared by the web console and the commands.
type Core struct {
	Cfg       *config.Config
	Session   *session.Store
	Client    *api.Client
	Auth      *auth.Service
	Knowledge *knowledge.Service

	storage closableStorage
}

// NewCore opens the token storage and wires session, request layer and
// services. onExpired runs after a 401 reset the session.
func NewCore(cfg *config.Config, onExpired func()) (*Core, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	storage, err := openStorage(&cfg.Storage)
	if err != nil {
		return nil, err
	}

	var opts []tokenstore.Option
	if cfg.Storage.EncryptionKey != "" {
		opts = append(opts, tokenstore.WithEncryptionKey(cfg.Storage.EncryptionKey))
	}

	tokens, err := tokenstore.New(storage, cfg.Storage.TokenKey, opts...)
	if err != nil {
		_ = storage.Close()
		return nil, errors.Wrap(err, "failed to create token store")
	}

	store := session.New(tokens)

	var clientOpts []api.Option
	if onExpired != nil {
		clientOpts = append(clientOpts, api.WithOnExpired(onExpired))
	}

	client, err := api.New(&cfg.API, store, clientOpts...)
	if err != nil {
		_ = storage.Close()
		return nil, errors.Wrap(err, "failed to create api client")
	}

	return &Core{
		Cfg:       cfg,
		Session:   store,
		Client:    client,
		Auth:      auth.NewService(store, client),
		Knowledge: knowledge.NewService(client),
		storage:   storage,
	}, nil
}

// Close releases the token storage.
func (c *Core) Close() error {
	return c.storage.Close()
}

func openStorage(cfg *config.Storage) (closableStorage, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn().Msg("memory storage: the session will not survive a restart")
		return tokenstore.NewMemory(), nil
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("driver", cfg.Driver).Msg("token storage opened")

	return kv.NewStorage(gdb), nil
}

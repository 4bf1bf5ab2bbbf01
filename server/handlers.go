package server

import (
	"database/sql"

	"github.com/lolnuked/streamguard/chat"
	"github.com/lolnuked/streamguard/settings"
)

// Deps bundles the dependencies the HTTP layer needs.
type Deps struct {
	DB       *sql.DB
	Settings *settings.Service
	Client   *chat.Client
	Monitor  *chat.Monitor
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db       *sql.DB
	settings *settings.Service
	client   *chat.Client
	monitor  *chat.Monitor
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		db:       deps.DB,
		settings: deps.Settings,
		client:   deps.Client,
		monitor:  deps.Monitor,
	}
}

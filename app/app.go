package app

import (
	"database/sql"

	"github.com/lemeur/confirm-by-email/config"
	"github.com/lemeur/confirm-by-email/mailer"
	"github.com/lemeur/confirm-by-email/plugin"
)

type App struct {
	*sql.DB
	*plugin.Plugin
	config.Config
}

func New(db *sql.DB, cfg config.Config) App {
	return App{
		DB:     db,
		Plugin: plugin.New(db, mailer.NewSMTP(cfg), cfg),
		Config: cfg,
	}
}

// Package app assembles the coaching bot from its config, storage,
// services and Telegram surface.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/aifit/coachbot/app/bot"
	"github.com/aifit/coachbot/app/config"
	"github.com/aifit/coachbot/app/planner"
	"github.com/aifit/coachbot/app/service"
	"github.com/aifit/coachbot/app/storage"
	"github.com/aifit/coachbot/core/bootstrap"
	coretelegram "github.com/aifit/coachbot/core/telegram"
	"github.com/aifit/coachbot/core/telegram/state"
)

// App holds the composed application.
type App struct {
	cfg     *config.Config
	db      *sqlx.DB
	bot     *bot.Bot
	planner *planner.Planner
}

// Bootstrap initializes logging, the database and migrations, then builds
// the service graph.
func Bootstrap(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	anketas := service.NewAnketaService(storage.NewAnketaRepo(res.DB))
	plans := service.NewPlanService(storage.NewPlanRepo(res.DB))
	gen := planner.New(cfg.Generation)

	fsm := state.NewMemoryManager()
	b := bot.New(cfg, fsm, anketas, plans, gen)

	return &App{
		cfg:     cfg,
		db:      res.DB,
		bot:     b,
		planner: gen,
	}, nil
}

// TelegramRunOptions exposes the bot routes plus app lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	opts, err := a.bot.TelegramRunOptions()
	if err != nil {
		return coretelegram.RunOptions{}, err
	}

	opts.OnStart = func(ctx context.Context, _ coretelegram.Runtime) error {
		a.planner.StartBackgroundRefresh(ctx)
		return nil
	}
	opts.OnStop = func(_ context.Context, _ coretelegram.Runtime) error {
		return a.db.Close()
	}
	return opts, nil
}

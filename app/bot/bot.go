// Package bot wires the Telegram surface of the coaching workflow: the
// client intake dialog and the trainer review loop.
package bot

import (
	"fmt"

	"github.com/aifit/coachbot/app/config"
	"github.com/aifit/coachbot/app/planner"
	"github.com/aifit/coachbot/app/service"
	coretelegram "github.com/aifit/coachbot/core/telegram"
	"github.com/aifit/coachbot/core/telegram/commands"
	"github.com/aifit/coachbot/core/telegram/router"
	"github.com/aifit/coachbot/core/telegram/state"
)

// Bot owns the handlers and their collaborators.
type Bot struct {
	cfg     *config.Config
	fsm     state.Manager
	pending *PendingEdits
	anketas *service.AnketaService
	plans   *service.PlanService
	gen     planner.Generator
}

// New assembles the bot from its dependencies.
func New(cfg *config.Config, fsm state.Manager, anketas *service.AnketaService, plans *service.PlanService, gen planner.Generator) *Bot {
	return &Bot{
		cfg:     cfg,
		fsm:     fsm,
		pending: NewPendingEdits(),
		anketas: anketas,
		plans:   plans,
		gen:     gen,
	}
}

// Pending exposes the in-flight edit store, mainly for tests.
func (b *Bot) Pending() *PendingEdits { return b.pending }

// TelegramRunOptions builds the registry, routes and middlewares for the
// core Telegram runtime.
func (b *Bot) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     b.handleStart,
		Description: "Start the questionnaire",
	})
	reg.RegisterCommand("/check_plan", commands.Command{
		Handler:     b.handleCheckPlan,
		Description: "Generate a plan from the latest questionnaire",
		AdminOnly:   true,
		Hidden:      true,
	})

	if err := reg.RegisterCallback(cbApprove, b.handleApprove); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("bot: callback wiring: %w", err)
	}
	if err := reg.RegisterCallback(cbEdit, b.handleRequestEdits); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("bot: callback wiring: %w", err)
	}
	if err := reg.RegisterCallback(cbCancelEdit, b.handleCancelEdits); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("bot: callback wiring: %w", err)
	}

	reg.SetTextFallback(b.handleTrainerText)

	b.registerIntakeStates()

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: b.trainerChat(),
	})
	routes = append(routes, router.TextRoutes(b.fsm, reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	middlewares := coretelegram.DefaultMiddlewares(b.cfg.CoreConfig(), nil)
	middlewares = append(middlewares, coretelegram.Middleware{
		Name: "session",
		Use:  state.WithSession(b.fsm),
	})

	return coretelegram.RunOptions{
		Config:      b.cfg.CoreConfig(),
		Registry:    reg,
		Routes:      routes,
		Middlewares: middlewares,
	}, nil
}

package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/aifit/coachbot/app"
	appconfig "github.com/aifit/coachbot/app/config"
	corecmd "github.com/aifit/coachbot/core/cmd"
)

func main() {
	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return appconfig.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			appCfg, ok := cfg.(*appconfig.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", cfg)
			}
			return app.Bootstrap(appCfg)
		},
	})
	if err != nil {
		log.Fatalf("coachbot: %v", err)
	}
}

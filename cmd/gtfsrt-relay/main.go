package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/config"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to read .env")
	}

	app := &cli.App{
		Name:  "gtfsrt-relay",
		Usage: "Metro-North real-time relay",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to config.yml"},
			&cli.StringFlag{Name: "log-level", Usage: "debug|info|warn|error (overrides config)"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			trainsCommand(),
			downloadCommand(),
			departuresCommand(),
			locateCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

// setup loads configuration and initializes logging for a command.
func setup(c *cli.Context) (config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.AppConfig{}, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if err := logging.Init(cfg.Log); err != nil {
		return config.AppConfig{}, err
	}
	return cfg, nil
}

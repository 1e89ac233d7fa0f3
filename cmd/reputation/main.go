package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &srv{ctx: ctx}
	app := s.loadApp()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatalln(err)
	}
}

func (s *srv) loadApp() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path of the toml configuration file",
		EnvVars: []string{"REPUTATION_CONFIG"},
	}

	versionFlag := &cli.StringFlag{
		Name:  "version",
		Usage: "Run the migrator of this version again",
	}

	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "reputation"
	app.Usage = "Developer reputation and progression engine"
	app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Flags:       []cli.Flag{configFlag},
			Category:    "Api",
			Description: `Used to start the http api, it includes event ingestion and every read api.`,
		},
		{
			Action:      s.startSubscriber,
			Name:        "subscriber",
			Usage:       "Start service subscriber",
			Flags:       []cli.Flag{configFlag},
			Category:    "Worker",
			Description: `Used to ingest activity events consumed from the message queue.`,
		},
		{
			Action:      s.startWorker,
			Name:        "worker",
			Usage:       "Start service worker",
			Flags:       []cli.Flag{configFlag},
			Category:    "Worker",
			Description: `Used to run deferred radar recalculations.`,
		},
		{
			Action:      s.startCron,
			Name:        "cron",
			Usage:       "Start service cron",
			Flags:       []cli.Flag{configFlag},
			Category:    "Worker",
			Description: `Used to run periodic jobs such as the leaderboard warm-up.`,
		},
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate the database",
			Flags:       []cli.Flag{configFlag, versionFlag},
			Category:    "Database",
			Description: `Used to apply pending migrations and seed the achievement catalog.`,
		},
	}

	return app
}

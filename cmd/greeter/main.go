package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"github.com/wricardo/greeter/log2"
	"github.com/wricardo/greeter/server"
)

var version = "dev"

func main() {
	env, envErr := loadEnv()

	app := newApp(env, envErr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("Application failed to run")
	}
}

// loadEnv merges .env with the process environment; the process environment wins.
func loadEnv() (map[string]string, error) {
	myEnv, err := godotenv.Read()
	if myEnv == nil {
		myEnv = map[string]string{}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			myEnv[k] = v
		}
	}
	return myEnv, err
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "interface to bind",
			Value: server.DefaultHost,
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "port number",
			Value:   server.DefaultPort,
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "detailed fault responses and debug logging, development only",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "trace, debug, info, warn, error",
		},
	}
}

func newApp(env map[string]string, envErr error) *cli.App {
	serve := func(cCtx *cli.Context) error {
		return runServer(cCtx, env, envErr)
	}

	return &cli.App{
		Name:   "greeter",
		Usage:  "Serve the greeting on GET /",
		Flags:  serverFlags(),
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "server",
				Usage:  "Run the greeting server (default)",
				Flags:  serverFlags(),
				Action: serve,
			},
			{
				Name:  "version",
				Usage: "Print the version",
				Action: func(cCtx *cli.Context) error {
					fmt.Fprintln(cCtx.App.Writer, version)
					return nil
				},
			},
		},
	}
}

func runServer(cCtx *cli.Context, env map[string]string, envErr error) error {
	opts, err := server.NewServerOptions(env)
	if err != nil {
		return err
	}
	if cCtx.IsSet("host") {
		opts.Host = cCtx.String("host")
	}
	if cCtx.IsSet("port") {
		opts.Port = cCtx.Int("port")
	}
	if cCtx.IsSet("debug") {
		opts.Debug = cCtx.Bool("debug")
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	level := env["LOG_LEVEL"]
	if cCtx.IsSet("log-level") {
		level = cCtx.String("log-level")
	}
	if level == "" && opts.Debug {
		level = "debug"
	}
	if err := log2.Configure(level, os.Stderr); err != nil {
		return err
	}
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded")
	}

	return server.NewServer(opts).Start()
}

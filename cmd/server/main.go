package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"text/tabwriter"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-chat-portal/internal/config"
	"github.com/jrsteele09/go-chat-portal/internal/httpserver"
	"github.com/jrsteele09/go-chat-portal/internal/logutil"
	"github.com/jrsteele09/go-chat-portal/routeguard"
	"github.com/jrsteele09/go-chat-portal/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "chat-portal",
		Usage:  "Sign-in, session and proxy front-end for the chat service",
		Flags:  settingsFlags(),
		Action: serveAction,
		Commands: []*cli.Command{
			serveCmd(),
			routesCmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}

func settingsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Optional TOML file applied before environment variables",
			EnvVars: []string{"CONFIG_FILE"},
		},
		&cli.StringFlag{
			Name:  "port",
			Usage: "Port or host:port to listen on",
		},
		&cli.StringFlag{
			Name:  "api-url",
			Usage: "Base URL of the chat backend",
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: "Environment name (DEV, production)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "zerolog level",
		},
	}
}

// loadConfig resolves defaults, the config file, the environment and then
// flags, in that order.
func loadConfig(c *cli.Context) (config.Config, error) {
	s, err := config.LoadFile(c.String("config"), config.Defaults())
	if err != nil {
		return nil, err
	}
	s = config.FromEnv(s)

	if c.IsSet("port") {
		s.Port = c.String("port")
	}
	if c.IsSet("api-url") {
		s.APIURL = c.String("api-url")
	}
	if c.IsSet("env") {
		s.Env = c.String("env")
	}
	if c.IsSet("log-level") {
		s.LogLevel = c.String("log-level")
	}
	return config.New(s)
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the portal (default)",
		Flags:  settingsFlags(),
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logutil.Setup(cfg.GetEnv(), cfg.GetLogLevel(), nil)
	displayAppname(cfg.GetAppName())
	return run(c.Context, cfg)
}

func run(ctx context.Context, cfg config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	log.Info().Str("addr", cfg.GetAddr()).Str("api_url", cfg.GetAPIURL()).Msg("Portal listening")
	if err := httpserver.Serve(ctx, cfg.GetAddr(), srv); err != nil {
		return fmt.Errorf("httpserver.Serve: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func routesCmd() *cli.Command {
	return &cli.Command{
		Name:  "routes",
		Usage: "Print the route guard rules and the proxy table",
		Flags: settingsFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			guard, err := routeguard.New(cfg)
			if err != nil {
				return err
			}

			out := c.App.Writer
			fmt.Fprintln(out, "Route guard:")
			fmt.Fprint(out, guard.Describe())
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Proxy table (backend %s):\n", cfg.GetAPIURL())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, r := range server.ProxyRoutes() {
				fmt.Fprintf(tw, "%s\t%s\t->\t%s\t%s\n", r.Method, r.Route, r.Upstream, r.Bearer)
			}
			return tw.Flush()
		},
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

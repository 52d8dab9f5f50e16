package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/urfave/cli/v2"

	pluglogin "github.com/miniplug/plug-login"
	"github.com/miniplug/plug-login/plugtest"
)

// Build information, set via ldflags.
var Version = "dev"

const workerStaggerDelay = 50 * time.Millisecond

// env is the state shared by every command, built once in App.Before.
type env struct {
	cfg     *Config
	logger  pluglogin.Logger
	logFile *os.File
	stub    *plugtest.Server
	verbose bool
	output  string
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "plug-login",
		Usage:   "Log in to plug.dj and print the session cookie",
		Version: Version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			userCommand(),
			guestCommand(),
			tokenCommand(),
			batchCommand(),
		},
		Before: setup,
		After: func(c *cli.Context) error {
			if e := getEnv(c); e != nil && e.logFile != nil {
				return e.logFile.Close()
			}
			return nil
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file",
			EnvVars: []string{"PLUG_LOGIN_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "plug.dj base URL",
			EnvVars: []string{"PLUG_LOGIN_HOST"},
		},
		&cli.BoolFlag{
			Name:    "auth-token",
			Aliases: []string{"t"},
			Usage:   "Also fetch an auth token",
		},
		&cli.StringFlag{
			Name:    "proxy",
			Usage:   "Proxy URL for all requests",
			EnvVars: []string{"PLUG_LOGIN_PROXY"},
		},
		&cli.StringSliceFlag{
			Name:    "header",
			Aliases: []string{"H"},
			Usage:   "Extra request header as Name=value (repeatable)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Append request logs to this file",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log every request to stderr",
		},
		&cli.BoolFlag{
			Name:  "stub",
			Usage: "Talk to an in-process fake of plug.dj instead of the network",
		},
	}
}

// setup merges configuration sources and opens the log outputs.
func setup(c *cli.Context) error {
	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	if c.IsSet("host") {
		cfg.Host = c.String("host")
	}
	if c.IsSet("auth-token") {
		cfg.AuthToken = c.Bool("auth-token")
	}
	if c.IsSet("proxy") {
		cfg.Proxy = c.String("proxy")
	}
	if c.IsSet("header") {
		headers, err := parseHeaders(c.StringSlice("header"))
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		for k, v := range headers {
			cfg.Headers[k] = v
		}
	}

	output := c.String("output")
	if output != "text" && output != "json" {
		return fmt.Errorf("unknown output format %q", output)
	}

	e := &env{cfg: cfg, verbose: c.Bool("verbose"), output: output}

	var writers []io.Writer
	if e.verbose {
		writers = append(writers, os.Stderr)
	}
	if path := c.String("log-file"); path != "" {
		e.logFile, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, e.logFile)
	}
	if len(writers) > 0 {
		e.logger = pluglogin.NewStdLogger(log.New(io.MultiWriter(writers...), "", log.LstdFlags))
	}

	if c.Bool("stub") {
		e.stub = plugtest.NewServer()
	}

	c.App.Metadata["env"] = e
	return nil
}

func getEnv(c *cli.Context) *env {
	if e, ok := c.App.Metadata["env"].(*env); ok {
		return e
	}
	return nil
}

// options turns the merged configuration into library options.
func (e *env) options() *pluglogin.Options {
	opts := &pluglogin.Options{
		Host:      e.cfg.Host,
		AuthToken: e.cfg.AuthToken,
		Headers:   e.cfg.Headers,
		Proxy:     e.cfg.Proxy,
		Logger:    e.logger,
	}
	if e.verbose {
		opts.TLSLogger = tls_client.NewLogger()
	}
	if e.stub != nil {
		opts.Host = plugtest.Host
		opts.Client = e.stub.Client()
	}
	return opts
}

// commandContext is cancelled on interrupt.
func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt)
}

func userCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Log in with an email address and password",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email",
				EnvVars: []string{"PLUG_LOGIN_NAME"},
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password",
				EnvVars: []string{"PLUG_LOGIN_PASS"},
			},
		},
		Action: runUser,
	}
}

func runUser(c *cli.Context) error {
	e := getEnv(c)

	email, password := e.cfg.Email, e.cfg.Password
	if c.IsSet("email") {
		email = c.String("email")
	}
	if c.IsSet("password") {
		password = c.String("password")
	}
	if email == "" || password == "" {
		return errors.New("email and password are required (flags, config file, or PLUG_LOGIN_NAME/PLUG_LOGIN_PASS)")
	}

	if e.stub != nil {
		e.stub.AddUser(email, password)
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	res, err := pluglogin.Login(ctx, email, password, e.options())
	if err != nil {
		return err
	}
	return printResult(c.App.Writer, e.output, res)
}

func guestCommand() *cli.Command {
	return &cli.Command{
		Name:   "guest",
		Usage:  "Obtain an anonymous session",
		Action: runGuest,
	}
}

func runGuest(c *cli.Context) error {
	e := getEnv(c)

	ctx, cancel := commandContext(c)
	defer cancel()

	res, err := pluglogin.Login(ctx, "", "", e.options())
	if err != nil {
		return err
	}
	return printResult(c.App.Writer, e.output, res)
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Exchange an existing session for an auth token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "session",
				Aliases:  []string{"s"},
				Usage:    "Session cookie value",
				Required: true,
			},
		},
		Action: runToken,
	}
}

func runToken(c *cli.Context) error {
	e := getEnv(c)

	ctx, cancel := commandContext(c)
	defer cancel()

	opts := e.options()
	opts.Session = c.String("session")

	token, err := pluglogin.GetAuthToken(ctx, opts)
	if err != nil {
		return err
	}
	return printToken(c.App.Writer, e.output, token)
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Log in every account of a file concurrently",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "accounts",
				Aliases:  []string{"a"},
				Usage:    "File with one email:password per line",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "proxies",
				Usage: "File with one proxy per line, assigned to workers at random",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Number of concurrent logins",
			},
		},
		Action: runBatch,
	}
}

func runBatch(c *cli.Context) error {
	e := getEnv(c)

	accounts, err := loadAccounts(c.String("accounts"))
	if err != nil {
		return err
	}

	var proxyManager *ProxyManager
	if path := c.String("proxies"); path != "" {
		proxyManager, err = NewProxyManager(path)
		if err != nil {
			return err
		}
	}

	workers := e.cfg.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}
	if workers <= 0 {
		return errors.New("workers must be a positive integer")
	}

	if e.stub != nil {
		for _, account := range accounts {
			e.stub.AddUser(account.Email, account.Password)
		}
	}

	logger := e.logger
	if logger == nil {
		logger = pluglogin.NewStdLogger(log.New(io.Discard, "", 0))
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	scheduler := NewScheduler(workers, e.options(), proxyManager, workerStaggerDelay, logger)

	proxies := 0
	if proxyManager != nil {
		proxies = proxyManager.Count()
	}
	logger.Log("Starting batch: %d accounts, %d workers, %d proxies", len(accounts), scheduler.WorkerCount(), proxies)

	summary := collectResults(c.App.Writer, e.output, scheduler.Run(ctx, accounts), len(accounts))
	if summary.fatal == nil {
		summary.fatal = scheduler.Err()
	}

	logger.Log("Batch finished: %d succeeded, %d failed", summary.succeeded, summary.failed)
	return summary.err(len(accounts))
}

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/danxi/authgate/config"
	"github.com/danxi/authgate/internal/bootstrap"
	"github.com/danxi/authgate/internal/data"
	domainauth "github.com/danxi/authgate/internal/domain/auth"
	"github.com/danxi/authgate/internal/service"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdin  io.Reader
	Stdout io.Writer
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultLoginTimeout     = 2 * time.Minute
)

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	stop()
	if runErr != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations for the postgres store",
			run:         runMigrations,
		},
		"login": {
			name:        "login",
			description: "Log in with a strategy (api|uis); the password is read from stdin",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Remove the persisted user record and auth artifacts",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the persisted user record and which auth artifacts are stored",
			run:         runWhoami,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: authgate-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-12s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

type migrateOptions struct {
	Timeout time.Duration
	DryRun  bool
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{Timeout: defaultMigrationTimeout}
	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete",
	)
	fs.BoolVar(&opts.DryRun, "dry-run", false, "List pending migrations without applying them")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	if opts.DryRun {
		pending, pendingErr := data.PendingMigrations(ctx, db)
		if pendingErr != nil {
			return fmt.Errorf("list pending migrations: %w", pendingErr)
		}
		return printPending(cmdCtx.Stdout, pending)
	}

	cmdCtx.Logger.Info("running database migrations")
	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}
	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

type loginOptions struct {
	Strategy service.Strategy
	Username string
	Timeout  time.Duration
}

func parseLoginFlags(args []string) (loginOptions, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := loginOptions{Timeout: defaultLoginTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultLoginTimeout, "Maximum duration of the login transaction")

	if err := fs.Parse(args); err != nil {
		return loginOptions{}, err
	}
	if fs.NArg() != 2 {
		return loginOptions{}, errors.New("usage: login [--timeout d] <api|uis> <username>")
	}
	strategy, err := service.ParseStrategy(fs.Arg(0))
	if err != nil {
		return loginOptions{}, err
	}
	opts.Strategy = strategy
	opts.Username = strings.TrimSpace(fs.Arg(1))
	if opts.Username == "" {
		return loginOptions{}, errors.New("username must not be empty")
	}
	if opts.Timeout <= 0 {
		return loginOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

// readSecret takes the first line of r, without its line terminator.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password must be provided on stdin")
	}
	return line, nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags(args)
	if err != nil {
		return err
	}
	secret, err := readSecret(cmdCtx.Stdin)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	services, err := bootstrap.NewServices(ctx, &cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			cmdCtx.Logger.Warn("close services failed", "error", cerr)
		}
	}()

	res, err := services.Auth.Login(ctx, opts.Strategy, domainauth.Credentials{
		Identifier: opts.Username,
		Secret:     secret,
	})
	if err != nil {
		return err
	}

	if err := writef(cmdCtx.Stdout, "Logged in via %s (attempt %s)\n", res.Strategy, res.AttemptID); err != nil {
		return fmt.Errorf("print login result: %w", err)
	}
	return printUser(cmdCtx.Stdout, res.User)
}

func runWhoami(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	services, err := bootstrap.NewServices(ctx, &cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			cmdCtx.Logger.Warn("close services failed", "error", cerr)
		}
	}()

	user, err := services.Auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		if werr := writef(cmdCtx.Stdout, "Not logged in\n"); werr != nil {
			return fmt.Errorf("print whoami: %w", werr)
		}
		return nil
	}
	if err := printUser(cmdCtx.Stdout, *user); err != nil {
		return err
	}

	for _, kind := range []domainauth.ArtifactKind{domainauth.ArtifactBearerToken, domainauth.ArtifactCookieJar} {
		_, found, aerr := services.Sessions.Artifact(ctx, kind)
		if aerr != nil {
			return aerr
		}
		if werr := writef(cmdCtx.Stdout, "  %-14s %s\n", kind, presence(found)); werr != nil {
			return fmt.Errorf("print artifact status: %w", werr)
		}
	}
	return nil
}

func runLogout(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	services, err := bootstrap.NewServices(ctx, &cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			cmdCtx.Logger.Warn("close services failed", "error", cerr)
		}
	}()

	if err := services.Sessions.Clear(ctx); err != nil {
		return err
	}
	return writef(cmdCtx.Stdout, "Logged out\n")
}

func printUser(w io.Writer, u domainauth.UserRecord) error {
	if err := writef(w, "User:  %s\nName:  %s\nGroup: %s\n", u.ID, u.DisplayName, u.Group); err != nil {
		return fmt.Errorf("print user: %w", err)
	}
	return nil
}

func printPending(w io.Writer, versions []string) error {
	if len(versions) == 0 {
		return writef(w, "no pending migrations\n")
	}
	for _, v := range versions {
		if err := writef(w, "pending  %s\n", v); err != nil {
			return err
		}
	}
	return nil
}

func presence(found bool) string {
	if found {
		return "stored"
	}
	return "absent"
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-xmd/internal/config"
	"github.com/alnah/go-xmd/internal/logging"
)

// runMain dispatches args (including the program name) and returns the
// process exit code. Errors are printed to env.Stderr with a hint when one
// applies.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[1], args[2:]
	hc := hintContext{command: cmd}

	var err error
	switch cmd {
	case "augment":
		err = runAugment(ctx, rest, env, &hc)
	case "render":
		err = runRender(ctx, rest, env, &hc)
	case "capture":
		err = runCapture(ctx, rest, env, &hc)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version":
		fmt.Fprintf(env.Stdout, "go-xmd %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
		fmt.Fprintln(env.Stderr, err)
		printUsage(env.Stderr)
		return exitCodeFor(err)
	}

	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(env.Stderr, "xmd %s: %v%s\n", cmd, err, hintFor(err, hc))
	}
	return exitCodeFor(err)
}

// settings is the resolved configuration of one command run.
type settings struct {
	cfg    *config.Config
	logger *slog.Logger
}

// loadSettings resolves configuration with precedence flags > env >
// config file > defaults, then builds the logger. The flag overlay is
// applied by the caller through apply before validation.
func loadSettings(env *Environment, common commonFlags, hc *hintContext, apply func(*config.Config)) (*settings, error) {
	warnUnknownEnvVars(env.Stderr)

	envCfg, err := loadEnvConfig()
	if err != nil {
		return nil, err
	}

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}
	hc.configName = name

	cfg := config.DefaultConfig()
	if name != "" {
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	switch {
	case common.verbose:
		level = slog.LevelDebug
	case common.quiet:
		level = slog.LevelError
	}

	logger := logging.New(env.Stderr, level)
	logger.Debug("configuration resolved",
		"config", name,
		"gomaxprocs", runtime.GOMAXPROCS(0),
		"debounce", cfg.Watch.Debounce,
		"style", cfg.Render.Style,
	)
	return &settings{cfg: cfg, logger: logger}, nil
}

// Package main запускает сервис суммы квадратов.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/udisondev/scale/internal/appdir"
	"github.com/udisondev/scale/pkg/config"
	"github.com/udisondev/scale/pkg/journal"
	"github.com/udisondev/scale/pkg/server"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// Без аргументов только справка
	if len(args) == 0 {
		printUsage(stdout)
		return 0
	}

	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		printUsage(stderr)
		return 1
	}
	if opts.help {
		printUsage(stdout)
		return 0
	}

	if opts.initOnly {
		if err := appdir.Init(); err != nil {
			fmt.Fprintln(stderr, "init app directory:", err)
			return 1
		}
		fmt.Fprintf(stdout, "Initialized: %s\n", appdir.Dir())
		fmt.Fprintf(stdout, "Config: %s\n", appdir.ConfigPath())
		fmt.Fprintf(stdout, "Logs: %s\n", appdir.LogsDir())
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(stderr, "load config:", err)
		return 1
	}

	closeLog := setupLogging(cfg.Log)
	defer closeLog()

	// Журнал событий; если недоступен ни основной путь, ни запасной, пишем в slog
	var jrnl journal.Journal = journal.Slog{}
	if f, err := journal.Open(cfg.Log.Journal); err != nil {
		fmt.Fprintln(stderr, "cannot open log file:", err)
	} else {
		defer f.Close()
		jrnl = f
		cfg.Log.Journal = f.Path
	}

	fmt.Fprintf(stdout, "Starting server on port %d\n", cfg.Server.Port)
	fmt.Fprintf(stdout, "User database: %s\n", cfg.Users.File)
	fmt.Fprintf(stdout, "Log file: %s\n", cfg.Log.Journal)

	slog.Info("scale starting",
		"config_dir", appdir.Dir(),
		"address", cfg.Server.Addr(),
		"users", cfg.Users.File,
		"journal", cfg.Log.Journal,
	)
	jrnl.Record("server starting", false, "addr", cfg.Server.Addr())

	// Создаём контекст с отменой по сигналам
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := server.Run(ctx, cfg, jrnl); err != nil {
		slog.Error("fatal error", "error", err)
		fmt.Fprintln(stderr, "Failed to start server")
		return 1
	}
	return 0
}

// loadConfig читает конфиг (явный путь или директория приложения)
// и применяет флаги командной строки.
func loadConfig(opts *cliOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadFromAppDir()
	}
	if err != nil {
		return nil, err
	}

	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging настраивает slog. Возвращает функцию закрытия файла логов.
func setupLogging(cfg config.LogConfig) func() {
	var output io.Writer = os.Stdout
	closeFn := func() {}

	// Настраиваем ротацию логов если указан файл
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100, // MB
			MaxAge:     7,   // days
			MaxBackups: 5,
			Compress:   true,
			LocalTime:  true,
		}
		output = lj
		closeFn = func() { _ = lj.Close() }
	}

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	slog.SetDefault(slog.New(handler))
	return closeFn
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/okian/bookarena/internal/adapters/backup"
	repository "github.com/okian/bookarena/internal/adapters/repository"
	"github.com/okian/bookarena/internal/adapters/terminal"
	service "github.com/okian/bookarena/internal/app"
	"github.com/okian/bookarena/internal/config"
	"github.com/okian/bookarena/internal/domain/selection"
	"github.com/okian/bookarena/pkg/logger"
)

const exitInterrupted = 130

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	// Logs go to a file by default so they do not interleave with prompts.
	closeLog, err := logger.InitFile(cfg.LogFile, cfg.LogJSON, cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer closeLog()
	log := logger.Get()

	store, err := repository.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Error(ctx, "open library failed", logger.String("db_path", cfg.DBPath), logger.Error(err))
		os.Stderr.WriteString("failed to open library: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "close library failed", logger.Error(err))
		}
	}()

	engine := service.New(store,
		service.WithLogger(logger.Named("engine")),
		service.WithSelector(selection.New(selection.WithSeed(cfg.RandSeed()))),
	)
	if err := engine.Open(ctx); err != nil {
		log.Error(ctx, "open session failed", logger.Error(err))
		os.Stderr.WriteString("failed to load library: " + err.Error() + "\n")
		return 1
	}

	console := terminal.NewConsole(os.Stdin, os.Stdout,
		terminal.WithColor(cfg.UseColor(terminal.ColorEnabled(os.Stdout))),
	)
	onQuit := backupHook(cfg, store, logger.Named("backup"))
	app := terminal.NewApp(console, engine, store,
		terminal.WithExportDir(cfg.ExportDir),
		terminal.WithPageSizes(cfg.InitialPageSize, cfg.PageSize),
		terminal.WithQuitHook(onQuit),
		terminal.WithAppLogger(logger.Named("terminal")),
	)

	// The prompt blocks on stdin, so an interrupt backs up and exits from here.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		sig := <-sigs
		log.Info(ctx, "interrupted", logger.String("signal", sig.String()))
		cancel()
		if err := onQuit(context.Background()); err != nil {
			log.Error(ctx, "backup on interrupt failed", logger.Error(err))
		}
		os.Stdout.WriteString("\n")
		os.Exit(exitInterrupted)
	}()

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error(ctx, "terminal session ended with error", logger.Error(err))
		os.Stderr.WriteString(err.Error() + "\n")
		return 1
	}
	return 0
}

// backupHook snapshots the library into cfg.BackupDir and prunes old copies.
func backupHook(cfg *config.Config, src backup.Snapshotter, log logger.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		rotator, err := backup.NewRotator(cfg.BackupDir,
			backup.WithKeep(cfg.BackupKeep),
			backup.WithLogger(log),
		)
		if err != nil {
			return err
		}
		// A cancelled root context must not skip the backup on the way out.
		path, err := rotator.Backup(context.WithoutCancel(ctx), src)
		if err != nil {
			return err
		}
		if info, statErr := os.Stat(path); statErr == nil {
			log.Info(ctx, "library backed up",
				logger.String("path", path),
				logger.String("size", humanize.Bytes(uint64(info.Size()))))
		}
		return nil
	}
}

// Command zentriod runs the download engine as a headless background
// process: it owns the job database, the scheduler, and the HTTP/
// WebSocket facade a host UI talks to over localhost.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"zentrio/internal/app"
	"zentrio/internal/engineconfig"
	"zentrio/internal/events"
	"zentrio/internal/filestore"
	"zentrio/internal/logger"
	"zentrio/internal/manager"
	"zentrio/internal/notifier"
	"zentrio/internal/server"
	"zentrio/internal/store"
)

// Version is set at build time via ldflags, or read at startup from a
// VERSION file in the working directory.
var Version string

func main() {
	if len(os.Args) > 1 && os.Args[1] == "watch" {
		watchFlags := flag.NewFlagSet("watch", flag.ExitOnError)
		addr := watchFlags.String("addr", "127.0.0.1:8765", "engine HTTP address")
		profileID := watchFlags.String("profile", "", "profile id the job belongs to")
		watchFlags.Parse(os.Args[2:])
		if watchFlags.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "Usage: zentriod watch [--addr host:port] [--profile id] <job-id>")
			os.Exit(1)
		}
		if err := runWatch(*addr, *profileID, watchFlags.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "watch: %v\n", err)
			os.Exit(1)
		}
		return
	}

	dataDir := flag.String("data-dir", "", "override the app-data directory (defaults to the OS config dir)")
	listenAddr := flag.String("listen", "", "override the HTTP listen address")
	flag.Parse()

	if Version == "" {
		if v, err := os.ReadFile("VERSION"); err == nil {
			Version = string(v)
		}
	}

	paths, err := app.GetPaths()
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving app paths: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		paths.AppData = *dataDir
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "creating app directories: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(paths.AppData); err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	logger.Log.Info().Str("version", Version).Str("appData", paths.AppData).Msg("zentriod starting")

	cfg, err := engineconfig.Load(paths.AppData)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("loading engine config")
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	db, err := store.New(paths.AppData)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("opening job database")
	}
	defer db.Close()

	files := filestore.New(paths.AppData)
	bus := events.NewBus()
	notif := notifier.New("")

	mgr := manager.New(db, files, bus, notif, cfg.MaxConcurrent)

	profileIDs, err := db.DistinctProfileIDs()
	if err != nil {
		logger.Log.Error().Err(err).Msg("listing profiles for restore")
	}
	for _, profileID := range profileIDs {
		if err := mgr.RestorePending(profileID); err != nil {
			logger.Log.Error().Err(err).Str("profileID", profileID).Msg("restoring pending downloads")
		}
	}

	srv := server.New(cfg.ListenAddr, mgr, files, bus)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("http server exited with error")
	}
	logger.Log.Info().Msg("zentriod shut down cleanly")
}

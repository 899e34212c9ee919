// Package main is the entry point for the tomography reconstruction CLI.
// It loads the persisted projector and measurement stores, verifies their
// alignment, runs the MiFGD optimizer, and reports the terminal state. All
// file I/O lives here; the core packages are a pure computational library.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/qtomo/internal/config"
	"github.com/aristath/qtomo/internal/database"
	"github.com/aristath/qtomo/internal/measurement"
	"github.com/aristath/qtomo/internal/pauli"
	"github.com/aristath/qtomo/internal/projectors"
	"github.com/aristath/qtomo/internal/tomography"
	"github.com/aristath/qtomo/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLog := logger.New(logger.Config{Level: "error"})
		errLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.Pretty})
	logger.SetGlobalLogger(log)

	// Ordered label list. When LABELS is unset, fall back to every persisted
	// projector in store order.
	var labels []pauli.Label
	if len(cfg.Labels) > 0 {
		labels, err = pauli.ParseLabels(cfg.Labels, cfg.Optimizer.Qubits)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid label list")
		}
	}

	projDB, err := database.New(cfg.ProjectorDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open projector database")
	}
	defer projDB.Close()

	measDB, err := database.New(cfg.MeasurementDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open measurement database")
	}
	defer measDB.Close()

	projRepo, err := projectors.NewSQLiteStore(projDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare projector store")
	}
	store, err := projRepo.Load(cfg.Optimizer.Qubits, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load projectors")
	}
	if len(labels) == 0 {
		labels = store.Labels()
	}

	measRepo, err := measurement.NewSQLiteStore(measDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare measurement store")
	}
	records, err := measRepo.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load measurements")
	}

	// Alignment and aggregation happen once, before any iteration.
	y, err := measurement.BuildVector(labels, store, records, cfg.Shots)
	if err != nil {
		log.Fatal().Err(err).Msg("Measurement data rejected")
	}

	fwd, err := tomography.NewForwardOperator(labels, store, cfg.Optimizer.Workers, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build forward operator")
	}

	opt, err := tomography.New(cfg.Optimizer, fwd, y, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to construct optimizer")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := opt.Run(ctx)
	if err != nil {
		log.Error().Err(err).
			Int("completed_iterations", result.Iterations).
			Msg("Reconstruction did not finish cleanly")
		os.Exit(1)
	}

	final := 0.0
	if len(result.Objective) > 0 {
		final = result.Objective[len(result.Objective)-1]
	}
	log.Info().
		Str("run_id", result.RunID).
		Str("status", result.Status.String()).
		Int("iterations", result.Iterations).
		Float64("objective", final).
		Float64("relative_change", result.RelativeChange).
		Msg("Reconstruction complete")
}

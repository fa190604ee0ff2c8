// Command spinsim runs the checkerboard spin-market simulation.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/jbaussand/spin-market/internal/api"
	"github.com/jbaussand/spin-market/internal/config"
	"github.com/jbaussand/spin-market/internal/engine"
	"github.com/jbaussand/spin-market/internal/entropy"
	"github.com/jbaussand/spin-market/internal/lattice"
	"github.com/jbaussand/spin-market/internal/recorder"
)

const (
	sampleBatchSize = 256
	logEverySweeps  = 1000
)

func main() {
	paramsPath := flag.String("params", "configs/params.conf", "key=value model parameter file")
	planPath := flag.String("plan", "configs/plan.yaml", "YAML run plan")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	plan, err := config.LoadPlan(*planPath)
	if err != nil {
		slog.Error("failed to load run plan", "path", *planPath, "error", err)
		os.Exit(1)
	}
	params, err := config.ReadParams(*paramsPath)
	if err != nil {
		slog.Error("failed to read parameters", "path", *paramsPath, "error", err)
		os.Exit(1)
	}
	cfg, err := config.LatticeConfig(params)
	if err != nil {
		slog.Error("invalid lattice parameters", "error", err)
		os.Exit(1)
	}

	seed := plan.Seed
	if seed == 0 {
		seed = entropy.OSSeed()
	}
	slog.Info("spin-market simulation",
		"grid", cfg.Height*cfg.Width,
		"height", cfg.Height,
		"width", cfg.Width,
		"sweeps", plan.Sweeps,
		"seed", seed,
		"workers", plan.Workers,
	)

	lat, err := lattice.New(cfg, entropy.New(seed))
	if err != nil {
		slog.Error("failed to build lattice", "error", err)
		os.Exit(1)
	}
	sess := engine.NewSession(lat, seed+1, plan.Workers)

	// ── Recording ─────────────────────────────────────────────────────
	var db *recorder.DB
	runID := uuid.NewString()
	if plan.Record.DBPath != "" {
		db, err = recorder.Open(plan.Record.DBPath)
		if err != nil {
			slog.Error("failed to open recording database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		runID, err = db.StartRun(cfg, seed, plan.NeighborCoupling, plan.Alpha)
		if err != nil {
			slog.Error("failed to register run", "error", err)
			os.Exit(1)
		}
		slog.Info("recording to database", "path", plan.Record.DBPath, "run", runID)
	}

	var frames *recorder.FrameWriter
	if plan.Record.FramesDir != "" && plan.Record.FrameEvery > 0 {
		frames, err = recorder.NewFrameWriter(plan.Record.FramesDir, runID)
		if err != nil {
			slog.Error("failed to open frame archive", "error", err)
			os.Exit(1)
		}
		defer frames.Close()
	}

	// ── Observation API ───────────────────────────────────────────────
	var srv *api.Server
	if plan.API.Port > 0 {
		srv = api.NewServer(plan.API.Port, plan.API.AdminKey)
		srv.Start()
	}

	// Scheduled shocks, grouped by sweep index.
	schedule := make(map[int][]config.ShockEvent)
	for _, ev := range plan.Shocks {
		schedule[ev.Sweep] = append(schedule[ev.Sweep], ev)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sweepParams := engine.SweepParams{
		NeighborCoupling: plan.NeighborCoupling,
		Alpha:            plan.Alpha,
		ExcludeNeutrals:  plan.ExcludeNeutrals,
	}

	pending := make([]recorder.Sample, 0, sampleBatchSize)
	flush := func() {
		if db == nil || len(pending) == 0 {
			return
		}
		if err := db.AppendSamples(runID, pending); err != nil {
			slog.Error("failed to save samples", "error", err)
		}
		pending = pending[:0]
	}

	applyShock := func(sweep int, fraction float64, region lattice.Region) {
		if err := sess.ApplyShock(fraction, region); err != nil {
			slog.Error("shock rejected", "error", err)
			return
		}
		if db != nil {
			if err := db.RecordShock(runID, sweep, fraction, region); err != nil {
				slog.Error("failed to record shock", "error", err)
			}
		}
	}

loop:
	for sweep := 0; sweep < plan.Sweeps; sweep++ {
		select {
		case <-sigCh:
			slog.Info("interrupted, finishing up", "sweep", sweep)
			break loop
		default:
		}

		for _, ev := range schedule[sweep] {
			applyShock(sweep, ev.Fraction, lattice.Region(ev.Region))
		}
		if srv != nil {
		drain:
			for {
				select {
				case req := <-srv.ShockRequests():
					applyShock(sweep, req.Fraction, lattice.Region(req.Region))
				default:
					break drain
				}
			}
		}

		res, err := sess.Sweep(sweepParams)
		if err != nil {
			slog.Error("sweep failed", "sweep", sweep, "error", err)
			os.Exit(1)
		}

		pending = append(pending, recorder.Sample{
			Sweep:          sweep,
			Magnetization:  res.Magnetization,
			MarketCoupling: res.MarketCoupling,
		})
		if len(pending) >= sampleBatchSize {
			flush()
		}

		if srv != nil {
			srv.Publish(api.Snapshot{
				Sweep:          sweep,
				Magnetization:  res.Magnetization,
				MarketCoupling: res.MarketCoupling,
				Grid:           lat.Grid(),
			})
		}
		if frames != nil && sweep%plan.Record.FrameEvery == 0 {
			err := frames.Write(recorder.Frame{
				RunID:         runID,
				Sweep:         sweep,
				Magnetization: res.Magnetization,
				Grid:          lat.Grid(),
			})
			if err != nil {
				slog.Error("failed to write frame", "sweep", sweep, "error", err)
			}
		}

		if sweep%logEverySweeps == 0 {
			slog.Info("sweep", "n", sweep, "magnetization", res.Magnetization, "market_coupling", res.MarketCoupling)
		}
	}

	flush()
	slog.Info("run complete", "run", runID)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talgya/etherpets/internal/agents"
	"github.com/talgya/etherpets/internal/api"
	"github.com/talgya/etherpets/internal/engine"
	"github.com/talgya/etherpets/internal/entropy"
	"github.com/talgya/etherpets/internal/journal"
	"github.com/talgya/etherpets/internal/llm"
	"github.com/talgya/etherpets/internal/persistence"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the farm and serve the observation API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runFarm(ctx, v)
		},
	}

	flags := cmd.Flags()
	flags.String("data-dir", "data", "directory for the database and event journal")
	flags.Bool("journal", true, "archive events as compressed JSONL under <data-dir>/journal")
	flags.Int("port", 8080, "HTTP API port")
	flags.String("admin-key", "", "bearer token for admin POST endpoints (empty disables them)")
	flags.String("relay-key", "", "bearer token for the WebSocket stream (empty leaves it open)")
	flags.String("anthropic-key", "", "Anthropic API key for generated conversations (empty uses dispositions)")
	flags.String("random-org-key", "", "random.org API key used to draw the seed")
	flags.Float64("speed", 1, "speed multiplier (0 starts paused)")
	flags.Int("backlog", 16, "conversation requests queued for the language model")
	_ = v.BindPFlags(flags)

	return cmd
}

func runFarm(ctx context.Context, v *viper.Viper) error {
	slog.Info("Etherpets farm simulation")

	t, err := loadTuning(v)
	if err != nil {
		return err
	}
	roster, err := loadRoster(v)
	if err != nil {
		return err
	}

	// ── Database ──────────────────────────────────────────────────────
	dataDir := v.GetString("data-dir")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, "etherpets.db")
	db, err := persistence.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	resume, err := db.LoadResume()
	if err != nil {
		return fmt.Errorf("load resume state: %w", err)
	}

	// ── Seed and farm (regenerated from the saved seed on resume) ─────
	seed := v.GetInt64("seed")
	if seed == 0 {
		seed = resume.Seed
	}
	randomOrg := entropy.NewClient(v.GetString("random-org-key"))
	rng, seed := entropy.NewRand(ctx, seed, randomOrg)

	m, points, err := loadFarm(v, t, seed)
	if err != nil {
		return err
	}

	pets := agents.NewSpawner(t.Spawn()).Spawn(roster, points)
	sim := engine.NewSimulation(m, pets, rng, t.Options())

	if db.HasWorldState() {
		saved, err := db.LoadPets()
		if err != nil {
			return err
		}
		n := sim.Restore(saved, resume.Tick, resume.Clock)
		slog.Info("farm restored",
			"pets", n,
			"tick", humanize.Comma(int64(resume.Tick)),
			"sim_time", engine.SimTime(resume.Tick),
		)
	} else {
		slog.Info("new farm", "pets", len(pets), "seed", seed)
	}

	// ── Conversation content ──────────────────────────────────────────
	if client := llm.NewClient(v.GetString("anthropic-key")); client != nil {
		worker := llm.NewWorker(client, v.GetInt("backlog"))
		worker.OnLine = func(req engine.ConversationRequest, l llm.Line) {
			slog.Debug("pet says", "pair", req.Key.String(), "pet", l.Pet, "emotion", l.Emotion, "says", l.Says)
		}
		go worker.Run(ctx)
		sim.Content = worker
		slog.Info("LLM client enabled (Haiku)")
	} else {
		sim.Content = llm.NewDispositions()
		slog.Warn("PETSIM_ANTHROPIC_KEY not set, pets react with their dispositions")
	}

	// ── Event journal ─────────────────────────────────────────────────
	if v.GetBool("journal") {
		j := journal.New(filepath.Join(dataDir, "journal"), "events")
		defer j.Close()
		sim.OnEvent = append(sim.OnEvent, j.Hook())
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := v.GetString("admin-key")
	if adminKey == "" {
		slog.Warn("PETSIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	server := &api.Server{
		Sim:      sim,
		DB:       db,
		Seed:     seed,
		Port:     v.GetInt("port"),
		AdminKey: adminKey,
		RelayKey: v.GetString("relay-key"),
	}
	sim.OnEvent = append(sim.OnEvent, server.EventHook())

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Tick = resume.Tick
	eng.SetSpeed(v.GetFloat64("speed"))
	server.Eng = eng

	eng.OnTick = func(_ uint64, dt float64) { sim.Step(dt) }
	eng.OnSecond = func(uint64) { server.PublishSnapshot() }
	eng.OnMinute = func(tick uint64) {
		stats := sim.CurrentStats()
		slog.Info("farm summary",
			"sim_time", engine.SimTime(tick),
			"tick", humanize.Comma(int64(tick)),
			"conversing", stats.Conversing,
			"conversations", humanize.Comma(int64(stats.ConversationsEnded)),
			"reactions", humanize.Comma(int64(stats.ReactionsShown)),
		)
		if err := db.SaveWorldState(sim, seed); err != nil {
			slog.Error("autosave failed", "error", err)
		}
	}

	// Save fresh farms right away so a crash before the first minute
	// still resumes on the same seed.
	if !db.HasWorldState() {
		if err := db.SaveWorldState(sim, seed); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	server.Start()
	defer server.Close()

	fmt.Printf("\nThe farm is awake: %d pets on a %dx%d field.\n", sim.Pets.Len(), m.Width, m.Height)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", server.Port)
	if resume.Tick > 0 {
		fmt.Printf("Resuming from tick %s (%s)\n", humanize.Comma(int64(resume.Tick)), engine.SimTime(resume.Tick))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	slog.Info("final save...")
	if err := db.SaveWorldState(sim, seed); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	fmt.Println("Simulation stopped. Farm state saved.")
	return nil
}

// Command petwatch follows a running farm over its API: it streams
// conversations as they start and end, and can nudge pets through the admin
// intervention endpoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talgya/etherpets/internal/engine"
	"github.com/talgya/etherpets/internal/watch"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:          "petwatch",
		Short:        "Watch and nudge a running Etherpets farm",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("api-url", "http://localhost:8080", "farm API base URL")
	flags.String("admin-key", "", "bearer token for admin endpoints")
	flags.String("relay-key", "", "bearer token for the stream")
	_ = v.BindPFlags(flags)

	v.SetEnvPrefix("PETWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(newFollowCmd(v), newNudgeCmd(v), newMoveCmd(v))
	return rootCmd
}

func newFollowCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Stream conversations as they start and end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return follow(ctx, v, cmd)
		},
	}
	cmd.Flags().String("memory", "petwatch_memory.json", "file keeping recent conversations between runs (empty disables)")
	cmd.Flags().Bool("events", false, "also print every farm event")
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}

func follow(ctx context.Context, v *viper.Viper, cmd *cobra.Command) error {
	baseURL := v.GetString("api-url")
	out := cmd.OutOrStdout()

	slog.Info("waiting for farm API...", "api_url", baseURL)
	if err := watch.NewObserver(baseURL).WaitReady(ctx, 5*time.Minute); err != nil {
		return err
	}

	mem := watch.LoadMemory(v.GetString("memory"))
	defer mem.Save()
	fmt.Fprint(out, "Recent conversations:\n", mem.Summary())

	tracker := watch.NewTracker()
	showEvents := v.GetBool("events")

	err := watch.Stream(ctx, baseURL, v.GetString("relay-key"), func(snap *watch.SnapshotInfo, ev *engine.Event) {
		if ev != nil {
			if showEvents {
				fmt.Fprintf(out, "[%s] %s: %s\n", engine.SimTime(ev.Tick), ev.Category, ev.Description)
			}
			return
		}
		for _, c := range tracker.Apply(snap) {
			switch c.Kind {
			case watch.Started:
				fmt.Fprintf(out, "[%s] %s and %s started talking (%s)\n",
					engine.SimTime(c.Tick), c.Names[0], c.Names[1], c.Pair.Quadrant)
			case watch.Ended:
				fmt.Fprintf(out, "[%s] %s and %s stopped talking after %s\n",
					engine.SimTime(c.Tick), c.Names[0], c.Names[1], engine.SimTime(c.Ticks))
				mem.Record(c)
			}
		}
	})
	if err != nil && ctx.Err() == nil {
		return err
	}

	slog.Info("petwatch stopped", "started", tracker.Started, "ended", tracker.Ended)
	return nil
}

func newNudgeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "nudge <pet-id> <emotion>",
		Short: "Queue a reaction for a pet, shown when the next conversation ends",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return act(cmd, v, watch.Intervention{Type: "reaction", Pet: args[0], Emotion: args[1]})
		},
	}
}

func newMoveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <pet-id>",
		Short: "Carry a free pet to another spot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, _ := cmd.Flags().GetFloat64("x")
			y, _ := cmd.Flags().GetFloat64("y")
			return act(cmd, v, watch.Intervention{Type: "move", Pet: args[0], X: x, Y: y})
		},
	}
	cmd.Flags().Float64("x", 0, "destination x")
	cmd.Flags().Float64("y", 0, "destination y")
	return cmd
}

func act(cmd *cobra.Command, v *viper.Viper, in watch.Intervention) error {
	key := v.GetString("admin-key")
	if key == "" {
		return fmt.Errorf("PETWATCH_ADMIN_KEY is required")
	}
	res, err := watch.NewActor(v.GetString("api-url"), key).Act(cmd.Context(), in)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Details)
	return nil
}

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talgya/etherpets/internal/entropy"
	"github.com/talgya/etherpets/internal/world"
)

func newMapCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Render the farm map as text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := loadTuning(v)
			if err != nil {
				return err
			}
			seed := entropy.Seed(cmd.Context(), v.GetInt64("seed"), nil)
			m, points, err := loadFarm(v, t, seed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, m.Render())
			fmt.Fprintf(out, "\nseed %d, %s tiles, %s blocked, %s spawn points\n",
				seed,
				humanize.Comma(int64(m.Width*m.Height)),
				humanize.Comma(int64(m.ObstacleCount())),
				humanize.Comma(int64(len(points))),
			)
			for terrain, n := range world.TerrainCounts(m) {
				fmt.Fprintf(out, "  %-8s %s\n", world.TerrainName(terrain), humanize.Comma(int64(n)))
			}
			return nil
		},
	}
}

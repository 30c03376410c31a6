package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talgya/etherpets/internal/agents"
)

func newRosterCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "Validate the roster and print it as TOML",
		Long:  "roster prints the built-in roster, or the one named by --roster after validating it, in the roster file format.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			roster, err := loadRoster(v)
			if err != nil {
				return err
			}
			out, err := agents.MarshalRoster(roster)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

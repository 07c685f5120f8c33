package main

import (
	"context"
	"errors"

	"github.com/jays-visionAI/ZINC-sub003/internal/resolver"
	"github.com/jays-visionAI/ZINC-sub003/internal/router"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"github.com/spf13/cobra"
)

func newResolveCmd(sf *storeFlags, defaultChannel string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve effective or runtime configuration",
	}
	cmd.AddCommand(newResolveConfigCmd(sf, defaultChannel), newResolveRuntimeCmd(sf))
	return cmd
}

func newResolveConfigCmd(sf *storeFlags, defaultChannel string) *cobra.Command {
	var instanceID, engineType string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective config of an instance for one engine type",
		RunE: func(cmd *cobra.Command, args []string) error {
			if instanceID == "" || engineType == "" {
				return errors.New("--instance and --engine are required")
			}
			s, err := sf.open()
			if err != nil {
				return err
			}
			defer s.Close()

			r := resolver.NewResolver(s, resolver.WithDefaultChannel(defaultChannel))
			cfg, err := r.GetEffectiveConfig(context.Background(), instanceID, models.EngineType(engineType))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().StringVar(&instanceID, "instance", "", "agent instance id")
	cmd.Flags().StringVar(&engineType, "engine", "", "engine type (planner, creator_text, engagement, goals)")
	return cmd
}

func newResolveRuntimeCmd(sf *storeFlags) *cobra.Command {
	var req models.RuntimeRequest
	var tiers bool
	cmd := &cobra.Command{
		Use:   "runtime",
		Short: "Print the provider/model selection for a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sf.open()
			if err != nil {
				return err
			}
			defer s.Close()

			rr := router.NewRuntimeResolver(s)
			if tiers {
				return printJSON(cmd.OutOrStdout(), rr.AvailableTiers(context.Background(), req.RoleType, req.Language))
			}
			sel, err := rr.Resolve(context.Background(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sel)
		},
	}
	cmd.Flags().StringVar(&req.RoleType, "role", "", "role type")
	cmd.Flags().StringVar(&req.Language, "language", "", "language (default global)")
	cmd.Flags().StringVar(&req.Tier, "tier", "", "tier (default balanced)")
	cmd.Flags().BoolVar(&tiers, "tiers", false, "list the available tiers instead")
	return cmd
}

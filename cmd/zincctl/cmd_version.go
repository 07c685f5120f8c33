package main

import (
	"fmt"
	"strconv"

	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Compare, gate and bump major.minor.patch versions",
	}

	compare := &cobra.Command{
		Use:   "compare V1 V2",
		Short: "Print -1, 0 or 1",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := models.CompareVersions(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res)
			return nil
		},
	}

	bump := &cobra.Command{
		Use:   "bump VERSION major|minor|patch",
		Short: "Print the incremented version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := models.IncrementVersion(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}

	var auto bool
	canUpgrade := &cobra.Command{
		Use:   "can-upgrade CURRENT CANDIDATE",
		Short: "Print whether CANDIDATE may auto-replace CURRENT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := models.CanAutoUpgrade(args[0], args[1], auto)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(ok))
			return nil
		},
	}
	canUpgrade.Flags().BoolVar(&auto, "auto-upgrade", true, "auto-upgrade policy of the consuming entity")

	cmd.AddCommand(compare, bump, canUpgrade)
	return cmd
}

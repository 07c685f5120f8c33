package main

import (
	"context"
	"errors"

	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"github.com/spf13/cobra"
)

func newInstanceCmd(sf *storeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Register and list agent instances",
	}

	var inst models.AgentInstance
	put := &cobra.Command{
		Use:   "put",
		Short: "Create or replace an agent instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inst.ID == "" || inst.ProjectID == "" {
				return errors.New("--id and --project are required")
			}
			s, err := sf.open()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.UpsertInstance(context.Background(), &inst); err != nil {
				return err
			}
			got, err := s.GetInstance(context.Background(), inst.ID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), got)
		},
	}
	put.Flags().StringVar(&inst.ID, "id", "", "instance id")
	put.Flags().StringVar(&inst.ProjectID, "project", "", "project id")
	put.Flags().StringVar(&inst.Name, "name", "", "display name")
	put.Flags().StringVar(&inst.ChannelID, "channel", "", "channel id (x, instagram, linkedin, ...)")

	var project string
	list := &cobra.Command{
		Use:   "list",
		Short: "List agent instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sf.open()
			if err != nil {
				return err
			}
			defer s.Close()
			out, err := s.ListInstances(context.Background(), project)
			if err != nil {
				return err
			}
			if out == nil {
				out = []models.AgentInstance{}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	list.Flags().StringVar(&project, "project", "", "only this project")

	cmd.AddCommand(put, list)
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jays-visionAI/ZINC-sub003/internal/catalog"
	"github.com/jays-visionAI/ZINC-sub003/pkg/models"
	"github.com/spf13/cobra"
)

func newCatalogCmd(sf *storeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Generate and seed the runtime rule and behaviour pack catalog",
	}
	cmd.AddCommand(newCatalogGenerateCmd(), newCatalogSeedCmd(sf))
	return cmd
}

func newCatalogGenerateCmd() *cobra.Command {
	var (
		out       string
		version   string
		roles     []string
		languages []string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the generated catalog as YAML",
		Long: `Generate the role × language × tier catalog.

Without --out the YAML goes to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if version != "" && !models.IsSemver(version) {
				return &models.ErrMalformedVersion{Version: version}
			}
			opts := catalog.GeneratorOptions{Languages: languages, Version: version}
			for _, r := range roles {
				opts.Roles = append(opts.Roles, models.EngineType(r))
			}
			c := catalog.Generate(opts)

			if out == "" {
				return catalog.EncodeYAML(cmd.OutOrStdout(), c)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := catalog.EncodeYAML(f, c); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rules and %d packs to %s\n", len(c.Rules), len(c.Packs), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().StringVar(&version, "version", "", "catalog version (default "+models.DefaultRuleVersion+")")
	cmd.Flags().StringSliceVar(&roles, "roles", nil, "roles to generate")
	cmd.Flags().StringSliceVar(&languages, "languages", nil, "languages to generate")
	return cmd
}

func newCatalogSeedCmd(sf *storeFlags) *cobra.Command {
	var (
		file        string
		autoUpgrade bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a catalog into the store",
		Long: `Seed the store from --file, or from the generated catalog.

Missing documents are created. Existing ones are replaced only with
--auto-upgrade, and only by a newer non-major version.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var c *catalog.Catalog
			if file != "" {
				var err error
				if c, err = catalog.LoadFile(file); err != nil {
					return err
				}
			} else {
				c = catalog.Generate(catalog.GeneratorOptions{})
			}

			s, err := sf.open()
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := catalog.Seed(context.Background(), s, c, catalog.SeedOptions{AutoUpgrade: autoUpgrade})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog to import")
	cmd.Flags().BoolVar(&autoUpgrade, "auto-upgrade", false, "replace stored documents with newer minor/patch versions")
	return cmd
}

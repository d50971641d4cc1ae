package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/isstracker/isstracker/server/internal/query"
)

// newQueryCmd builds `isstracker query`, which loads both sources once and
// prints the answer to a single query.
func newQueryCmd(opts *options) *cobra.Command {
	var engine *query.Engine

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Load the sources once and run a single query",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupLogger(os.Stderr, opts.logLevel); err != nil {
				return err
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			st, _ := newStore(cfg)
			if _, err := st.Load(cmd.Context()); err != nil {
				return err
			}
			engine = query.New(st)
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "epochs [EPOCH]",
			Short: "List all epochs, or print the record of one epoch",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 0 {
					return printLines(cmd.OutOrStdout(), engine.ListEpochs())
				}
				rec, err := engine.GetEpoch(args[0])
				if err != nil {
					return fmt.Errorf("epoch %q: %w", args[0], err)
				}
				return printJSON(cmd.OutOrStdout(), rec)
			},
		},
		&cobra.Command{
			Use:   "countries",
			Short: "List all countries with sightings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printLines(cmd.OutOrStdout(), engine.ListCountries())
			},
		},
		&cobra.Command{
			Use:   "regions COUNTRY",
			Short: "List the regions of a country",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return printLines(cmd.OutOrStdout(), engine.ListRegions(args[0]))
			},
		},
		&cobra.Command{
			Use:   "cities COUNTRY REGION",
			Short: "List the cities of a region",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return printLines(cmd.OutOrStdout(), engine.ListCities(args[0], args[1]))
			},
		},
		&cobra.Command{
			Use:   "sightings COUNTRY [REGION [CITY]]",
			Short: "Print the sightings of a country, region or city",
			Args:  cobra.RangeArgs(1, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				var res query.Keyed
				switch len(args) {
				case 1:
					res = engine.GetCountry(args[0])
				case 2:
					res = engine.GetRegion(args[0], args[1])
				default:
					res = engine.GetCity(args[0], args[1], args[2])
				}
				return printJSON(cmd.OutOrStdout(), res)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the loaded snapshot id and record counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printJSON(cmd.OutOrStdout(), engine.Status())
			},
		},
	)
	return cmd
}

func printLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

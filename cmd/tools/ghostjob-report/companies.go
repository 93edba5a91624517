package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ghostjob-workers/internal/bootstrap"
	"ghostjob-workers/internal/detection/fleet"
	"ghostjob-workers/internal/models"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func newCompaniesCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Rank companies by how heavily they recycle postings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("unknown format %q, want %s or %s", format, formatTable, formatJSON)
			}
			if limit < 0 {
				return fmt.Errorf("limit must not be negative")
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			log := opts.logger()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			res, err := bootstrap.Open(ctx, cfg, bootstrap.Options{Attempts: 1}, log)
			if err != nil {
				return err
			}
			defer res.Close()

			entries, err := fleet.NewAggregator(res.Store, cfg.Store.PageSize, log).ListSuspiciousCompanies(ctx)
			if err != nil {
				return err
			}
			if limit > 0 && limit < len(entries) {
				entries = entries[:limit]
			}
			return renderCompanies(cmd.OutOrStdout(), entries, format)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of companies to print, 0 prints all")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table or json")
	return cmd
}

func renderCompanies(w io.Writer, entries []models.CompanySuspicionEntry, format string) error {
	if format == formatJSON {
		if entries == nil {
			entries = []models.CompanySuspicionEntry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no suspicious companies found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCOMPANY\tSCORE\tPOSTINGS\tSIMILAR\tTITLES\tLOCATIONS")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\t%s\n",
			i+1, e.CompanyName, e.SuspicionScore, e.PostingCount, e.SimilarPostingsCount,
			joinOrDash(e.Titles), joinOrDash(e.Locations))
	}
	return tw.Flush()
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

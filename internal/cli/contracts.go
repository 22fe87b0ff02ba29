package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"merchant-onboarding/internal/admin"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/store"
)

const dateLayout = "2006-01-02"

// ContractsCommand groups the back-office contract commands.
func ContractsCommand(open Opener, connect Connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "List and update merchant contracts",
	}
	cmd.AddCommand(contractsListCommand(open, connect), contractsSetStatusCommand(open, connect))
	return cmd
}

func contractsListCommand(open Opener, connect Connector) *cobra.Command {
	var (
		f        admin.Filter
		status   string
		from, to string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				f.Status = onboarding.ContractStatus(status)
				if !f.Status.Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
			}
			var err error
			if f.From, err = parseDay(from, false); err != nil {
				return err
			}
			if f.To, err = parseDay(to, true); err != nil {
				return err
			}

			ds, err := open()
			if err != nil {
				return fmt.Errorf("failed to open data store: %w", err)
			}
			defer ds.Close()

			fx := connect()
			defer fx.Close()

			rows, err := admin.New(ds, admin.WithCache(fx.Cache), admin.WithEvents(fx.Events)).ListContracts(cmd.Context(), f)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout(), "NUMBER", "STATUS", "COMPANY", "CONTACT", "SALESPERSON", "LOCATIONS", "MONTHLY FEES", "DAYS")
			for _, r := range rows {
				days := "-"
				if r.DaysSinceSubmission != nil {
					days = fmt.Sprint(*r.DaysSinceSubmission)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					r.ContractNumber, r.Status, r.CompanyName, r.ContactName, r.Salesperson,
					r.LocationCount, r.MonthlyFees.StringFixed(2), days)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d contract(s)\n", len(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status ("+statusList()+")")
	cmd.Flags().StringVar(&f.Type, "type", "", "Filter by contract type")
	cmd.Flags().StringVar(&f.Salesperson, "salesperson", "", "Filter by salesperson")
	cmd.Flags().StringVar(&f.Search, "search", "", "Free-text search over number, contact and company")
	cmd.Flags().StringVar(&from, "from", "", "Created on or after this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Created on or before this day (YYYY-MM-DD)")
	return cmd
}

func contractsSetStatusCommand(open Opener, connect Connector) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "set-status --status STATUS ID...",
		Short: "Move contracts to a new status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := onboarding.ContractStatus(status)
			ds, err := open()
			if err != nil {
				return fmt.Errorf("failed to open data store: %w", err)
			}
			defer ds.Close()

			fx := connect()
			defer fx.Close()

			n, err := admin.New(ds, admin.WithCache(fx.Cache), admin.WithEvents(fx.Events)).BulkUpdate(cmd.Context(), args, store.ContractPatch{Status: &st})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %d of %d contract(s) moved to %s\n", n, len(args), st)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "New status ("+statusList()+")")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

// parseDay reads YYYY-MM-DD. With nextDay the result is the exclusive upper
// bound that still covers the whole day.
func parseDay(s string, nextDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	if nextDay {
		t = t.Add(24 * time.Hour)
	}
	return &t, nil
}

func statusList() string {
	names := make([]string, len(onboarding.ContractStatuses))
	for i, s := range onboarding.ContractStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

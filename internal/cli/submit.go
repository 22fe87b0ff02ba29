package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"merchant-onboarding/internal/fees"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/submission"
)

// SubmitCommand runs a JSON aggregate through the submission pipeline, the
// same way the wizard does on its final step.
func SubmitCommand(open Opener, connect Connector) *cobra.Command {
	var (
		file       string
		contractID string
		draft      bool
		locale     string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an onboarding aggregate from a JSON file",
		Long: `Submit an onboarding aggregate from a JSON file.

Examples:
  # Create and submit a new contract
  onboarding submit --file aggregate.json

  # Save a draft over an existing contract
  onboarding submit --file aggregate.json --contract 6f1c... --draft`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readAggregate(file)
			if err != nil {
				return err
			}

			ds, err := open()
			if err != nil {
				return fmt.Errorf("failed to open data store: %w", err)
			}
			defer ds.Close()

			fx := connect()
			defer fx.Close()

			p := submission.New(ds,
				submission.WithCache(fx.Cache),
				submission.WithEvents(fx.Events),
				submission.WithFeeCalculator(fees.NewCalculator(fees.DefaultRates())),
				submission.WithLocale(locale))

			var res submission.Result
			if draft {
				res = p.SaveDraft(cmd.Context(), contractID, d)
			} else {
				res = p.Submit(cmd.Context(), contractID, d)
			}
			if !res.Success {
				return fmt.Errorf("submission failed (%s): %s", res.Section, res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Contract %s saved (id %s)\n", res.ContractNumber, res.ContractID)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the aggregate JSON (required)")
	cmd.Flags().StringVar(&contractID, "contract", "", "Existing contract id to overwrite")
	cmd.Flags().BoolVar(&draft, "draft", false, "Save as draft without validation or status change")
	cmd.Flags().StringVar(&locale, "locale", submission.DefaultLocale, "Language of failure messages")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readAggregate(path string) (*onboarding.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	d := onboarding.NewData()
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return d, nil
}

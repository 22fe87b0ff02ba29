// Package cli holds the operator commands of the onboarding binary.
package cli

import (
	"github.com/spf13/cobra"

	"merchant-onboarding/internal/config"
	"merchant-onboarding/internal/datastore"
)

// Opener returns the data store a command works against. Commands close
// what they open.
type Opener func() (datastore.DataStore, error)

// EnvOpener opens the store described by the environment.
func EnvOpener() (datastore.DataStore, error) {
	return datastore.NewDataStore(config.GetDataStoreConfig())
}

// NewRootCommand assembles the onboarding command tree. A nil connect
// leaves mutations uncached and unpublished.
func NewRootCommand(open Opener, connect Connector) *cobra.Command {
	if connect == nil {
		connect = NopEffects
	}
	root := &cobra.Command{
		Use:           "onboarding",
		Short:         "Merchant onboarding operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		MigrateCommand(),
		SeedConfigCommand(open),
		SubmitCommand(open, connect),
		ContractsCommand(open, connect),
	)
	return root
}

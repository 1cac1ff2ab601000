package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dPref/cmd/pref"
	"github.com/ValentinKolb/dPref/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dpref",
		Short: "typed, observable preference store",
		Long: fmt.Sprintf(`dPref (v%s)

Inspect and edit the preference stores of an application. Every store is
one typed key-value map persisted by the memory, file or badger engine.`, Version),
		SilenceUsage:       true,
		PersistentPreRunE:  util.SetupRuntime,
		PersistentPostRunE: util.ShutdownRuntime,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dPref",
		// no runtime needed
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dPref v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(pref.Commands()...)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupConfigFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

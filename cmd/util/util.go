package util

import (
	"errors"
	"strings"

	"github.com/ValentinKolb/dPref/lib/common"
	"github.com/ValentinKolb/dPref/lib/prefs"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupConfigFlags adds the storage and logging flags to a command
func SetupConfigFlags(cmd *cobra.Command) {
	def := common.DefaultConfig()

	key := "data-dir"
	cmd.PersistentFlags().String(key, def.DataDir, WrapString("Root directory of the stores, they are kept in <data-dir>/datastore"))

	key = "engine"
	cmd.PersistentFlags().String(key, def.Engine, WrapString("Storage engine of the stores (memory, file, badger)"))

	key = "codec"
	cmd.PersistentFlags().String(key, def.Codec, WrapString("Codec of the file engine (json, gob, binary)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dpref")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetConfig reads the store configuration from viper
func GetConfig() common.Config {
	return common.Config{
		DataDir:  viper.GetString("data-dir"),
		Engine:   viper.GetString("engine"),
		Codec:    viper.GetString("codec"),
		LogLevel: viper.GetString("log-level"),
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupRuntime binds the flags of cmd and initializes the default runtime
func SetupRuntime(cmd *cobra.Command, _ []string) error {
	if err := BindCommandFlags(cmd); err != nil {
		return err
	}
	return prefs.Init(GetConfig())
}

// ShutdownRuntime closes all stores opened by the command
func ShutdownRuntime(*cobra.Command, []string) error {
	if err := prefs.Shutdown(); err != nil && !errors.Is(err, prefs.ErrOwnerNotInitialized) {
		return err
	}
	return nil
}

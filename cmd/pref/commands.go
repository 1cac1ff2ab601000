package pref

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/ValentinKolb/dPref/lib/db"
	"github.com/ValentinKolb/dPref/lib/util"
	"github.com/spf13/cobra"
)

var (
	listShowInfo bool

	getCmd = &cobra.Command{
		Use:   "get [store] [name]",
		Short: "Reads the value of a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := openOwner(args[0])
			if err != nil {
				return err
			}
			m, err := currentMap(cmd.Context(), o)
			if err != nil {
				return err
			}
			e, ok := m.Get(args[1])
			fmt.Println(formatEntry(args[1], e, ok))
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [store] [name] [kind] [value]",
		Short: "Sets the value of a preference",
		Long: `Sets the value of a preference. kind is one of int32, int64, float32,
float64, bool, string, string_set. The members of a string_set are separated
by commas (e.g. "a,b,c", an empty value is the empty set).`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := db.ParseKind(args[2])
			if err != nil {
				return err
			}
			e, err := parseEntry(kind, args[3])
			if err != nil {
				return fmt.Errorf("invalid %s value %q: %w", kind, args[3], err)
			}
			o, err := openOwner(args[0])
			if err != nil {
				return err
			}
			if _, err := setEntry(cmd.Context(), o, args[1], e); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [store] [name]",
		Short: "Deletes a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := openOwner(args[0])
			if err != nil {
				return err
			}
			found := false
			if _, err := o.Store().Edit(cmd.Context(), func(m *db.MutablePreferences) error {
				_, found = m.Get(args[1])
				m.Remove(args[1])
				return nil
			}); err != nil {
				return err
			}
			fmt.Printf("name=%s, deleted=%t\n", args[1], found)
			return nil
		},
	}
	listCmd = &cobra.Command{
		Use:   "list [store]",
		Short: "Lists all preferences of a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := openOwner(args[0])
			if err != nil {
				return err
			}
			m, err := currentMap(cmd.Context(), o)
			if err != nil {
				return err
			}
			m.Range(func(name string, e db.Entry) bool {
				fmt.Println(formatEntry(name, e, true))
				return true
			})
			fmt.Printf("%d preferences\n", m.Len())

			if listShowInfo {
				info, err := o.Store().GetInfo()
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			}
			return nil
		},
	}
	watchCmd = &cobra.Command{
		Use:   "watch [store] [name]",
		Short: "Prints the store (or one preference) on every change until interrupted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := openOwner(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			for m, err := range util.All(ctx, o.Store().Data()) {
				if err != nil {
					if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
						return nil
					}
					return err
				}
				if len(args) == 2 {
					e, ok := m.Get(args[1])
					fmt.Println(formatEntry(args[1], e, ok))
				} else {
					fmt.Println(m.String())
				}
			}
			log.Infof("store %s closed", args[0])
			return nil
		},
	}
)

func init() {
	listCmd.Flags().BoolVar(&listShowInfo, "info", false, "Also print the store and engine information")
}

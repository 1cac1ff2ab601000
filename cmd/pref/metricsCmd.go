package pref

import (
	"os"

	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
)

var (
	metricsProcess bool

	metricsCmd = &cobra.Command{
		Use:   "metrics [store...]",
		Short: "Loads the given stores and prints the metrics in Prometheus format",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				o, err := openOwner(name)
				if err != nil {
					return err
				}
				if _, err := currentMap(cmd.Context(), o); err != nil {
					log.Warningf("failed to load store %s: %v", name, err)
				}
			}
			metrics.WritePrometheus(os.Stdout, metricsProcess)
			return nil
		},
	}
)

func init() {
	metricsCmd.Flags().BoolVar(&metricsProcess, "process", false, "Also print the metrics of the process (memory, cpu, goroutines)")
}

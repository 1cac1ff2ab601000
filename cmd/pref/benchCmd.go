package pref

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/ValentinKolb/dPref/cmd/util"
	"github.com/ValentinKolb/dPref/lib/prefs"
	"github.com/ValentinKolb/dPref/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	benchCmd = &cobra.Command{
		Use:   "bench [store]",
		Short: "Runs concurrent increments against a store and checks that no update is lost",
		Args:  cobra.ExactArgs(1),
		RunE:  runBench,
	}
	benchName    = "__bench"
	benchThreads = 10
	benchOps     = 1000
)

func init() {
	key := "threads"
	benchCmd.Flags().Int(key, benchThreads, util.WrapString("Number of concurrent writers"))
	key = "ops"
	benchCmd.Flags().Int(key, benchOps, util.WrapString("Total number of increments"))
	key = "name"
	benchCmd.Flags().String(key, benchName, util.WrapString("Name of the int64 preference used as counter, it is removed afterwards"))
	key = "csv"
	benchCmd.Flags().String(key, "", util.WrapString("Optional path to save the benchmark result as CSV"))
}

// benchResult is the outcome of one bench run
type benchResult struct {
	Ops      int
	Duration time.Duration
	Stats    store.EditStats
}

func (r benchResult) nsPerOp() float64 {
	return math.Max(float64(r.Duration.Nanoseconds())/float64(max(r.Ops, 1)), 1) // prevent division by zero
}

func runBench(cmd *cobra.Command, args []string) error {
	benchThreads = viper.GetInt("threads")
	benchOps = viper.GetInt("ops")
	benchName = viper.GetString("name")
	if benchThreads < 1 || benchOps < 1 {
		return errors.New("threads and ops must be positive")
	}

	o, err := openOwner(args[0])
	if err != nil {
		return err
	}
	counter, err := prefs.Int64(o, benchName, 0)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	start, err := counter.GetOrDefault(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Benchmark configuration:")
	cfg := util.GetConfig()
	fmt.Print(cfg.String())
	fmt.Printf("\nThreads: %d, Increments: %d\n\n", benchThreads, benchOps)

	// run the increments
	inc := prefs.SetFunc(func(v int64) int64 { return v + 1 })
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(benchThreads)

	began := time.Now()
	for i := 0; i < benchOps; i++ {
		g.Go(func() error {
			_, err := counter.Update(gctx, inc)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("increment failed: %w", err)
	}
	result := benchResult{Ops: benchOps, Duration: time.Since(began)}

	// verify and clean up
	end, err := counter.GetOrDefault(ctx)
	if err != nil {
		return err
	}
	if _, err := counter.Clear(ctx); err != nil {
		log.Warningf("failed to remove %s: %v", benchName, err)
	}

	if info, err := o.Store().GetInfo(); err == nil {
		result.Stats = info.Stats
	}
	printResult("increment", result)

	if path := viper.GetString("csv"); path != "" {
		if err := writeResultToCSV(path, args[0], result); err != nil {
			return err
		}
		fmt.Printf("results written to %s\n", path)
	}

	if lost := start + int64(benchOps) - end; lost != 0 {
		return fmt.Errorf("%d updates lost (start=%d, end=%d)", lost, start, end)
	}
	fmt.Println("no updates lost")
	return nil
}

// printResult prints the result of a benchmark in a formatted way
func printResult(test string, r benchResult) {
	nsPerOp := r.nsPerOp()
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
	fmt.Printf("%-20sp50=%.3fms p99=%.3fms max=%.3fms\n", "edit latency", r.Stats.P50Ms, r.Stats.P99Ms, r.Stats.MaxMs)
}

// writeResultToCSV writes a benchmark result to a CSV file
func writeResultToCSV(csvPath, storeName string, r benchResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	cfg := util.GetConfig()
	header := []string{
		"Store", "Engine", "Codec", "Threads", "Ops",
		"NsPerOp", "OpsPerSec", "MeanMs", "P50Ms", "P99Ms", "MaxMs",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	nsPerOp := r.nsPerOp()
	row := []string{
		storeName,
		cfg.Engine,
		cfg.Codec,
		strconv.Itoa(benchThreads),
		strconv.Itoa(r.Ops),
		fmt.Sprintf("%.0f", nsPerOp),
		fmt.Sprintf("%.0f", 1.0/(nsPerOp/1e9)),
		fmt.Sprintf("%.3f", r.Stats.MeanMs),
		fmt.Sprintf("%.3f", r.Stats.P50Ms),
		fmt.Sprintf("%.3f", r.Stats.P99Ms),
		fmt.Sprintf("%.3f", r.Stats.MaxMs),
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %v", err)
	}
	return nil
}

package dbcli

import (
	"fmt"
	"io"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alekitto/btree/database"
)

const benchProgressEvery = 100_000

type benchOptions struct {
	ops       int
	readRatio int
	delRatio  int
	seed      int64
}

func (o benchOptions) validate() error {
	if o.ops < 1 {
		return errors.Newf("--ops must be positive, got %d", o.ops)
	}
	if o.readRatio < 0 || o.delRatio < 0 || o.readRatio+o.delRatio > 100 {
		return errors.Newf("--read-ratio and --remove-ratio must be percentages summing to at most 100, got %d and %d",
			o.readRatio, o.delRatio)
	}
	return nil
}

type benchResult struct {
	ops, pushes, reads, hits, removes int
	elapsed                           time.Duration
	count, height                     int
}

func (r benchResult) print(w io.Writer) {
	rate := int64(0)
	if secs := r.elapsed.Seconds(); secs > 0 {
		rate = int64(float64(r.ops) / secs)
	}
	fmt.Fprintf(w, "ops:     %s in %s (%s ops/s)\n", humanize.Comma(int64(r.ops)), r.elapsed, humanize.Comma(rate))
	fmt.Fprintf(w, "pushes:  %s\n", humanize.Comma(int64(r.pushes)))
	fmt.Fprintf(w, "reads:   %s (%s hits)\n", humanize.Comma(int64(r.reads)), humanize.Comma(int64(r.hits)))
	fmt.Fprintf(w, "removes: %s\n", humanize.Comma(int64(r.removes)))
	fmt.Fprintf(w, "size:    %s keys, height %d\n", humanize.Comma(int64(r.count)), r.height)
}

// runBench drives a mixed push/get/remove workload over fake host names.
// Reads and removes pick among the keys pushed so far.
func runBench(coll *database.Collection, opts benchOptions, log zerolog.Logger) (benchResult, error) {
	faker := gofakeit.New(opts.seed)
	keys := make([]string, 0, opts.ops)
	res := benchResult{ops: opts.ops}

	start := time.Now()
	since := start
	for i := 1; i <= opts.ops; i++ {
		roll := faker.Number(1, 100)
		switch {
		case len(keys) > 0 && roll <= opts.readRatio:
			if _, ok := coll.FindKey(keys[faker.Number(0, len(keys)-1)]); ok {
				res.hits++
			}
			res.reads++
		case len(keys) > 0 && roll <= opts.readRatio+opts.delRatio:
			removed, err := coll.DeleteKey(keys[faker.Number(0, len(keys)-1)])
			if err != nil {
				return res, err
			}
			if removed {
				res.removes++
			}
		default:
			key := faker.DomainName()
			if err := coll.InsertKV(key, faker.IPv4Address()); err != nil {
				return res, err
			}
			keys = append(keys, key)
			res.pushes++
		}

		if i%benchProgressEvery == 0 {
			log.Info().Msgf("ops=%s dur=%s ops/s=%s size=%s",
				humanize.Comma(int64(i)),
				time.Since(since),
				humanize.Comma(int64(benchProgressEvery/time.Since(since).Seconds())),
				humanize.Comma(int64(coll.Count())),
			)
			since = time.Now()
		}
	}
	res.elapsed = time.Since(start)
	res.count = coll.Count()
	res.height = coll.Height()

	return res, coll.Verify()
}

func newBenchCmd(e *env) *cobra.Command {
	var opts benchOptions
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a mixed push/get/remove workload against one collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}

			db, err := e.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			coll, err := db.CreateCollection("bench")
			if err != nil {
				return err
			}

			res, err := runBench(coll, opts, e.log)
			if err != nil {
				return errors.Wrap(err, "benchmark failed")
			}

			out := cmd.OutOrStdout()
			res.print(out)
			return e.printMetrics(out)
		},
	}
	cmd.Flags().IntVar(&opts.ops, "ops", 100_000, "number of operations")
	cmd.Flags().IntVar(&opts.readRatio, "read-ratio", 50, "percentage of operations that are gets")
	cmd.Flags().IntVar(&opts.delRatio, "remove-ratio", 10, "percentage of operations that are removes")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

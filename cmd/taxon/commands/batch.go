package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/teranos/taxon/cache"
	"github.com/teranos/taxon/display"
	"github.com/teranos/taxon/errors"
	"github.com/teranos/taxon/logger"
)

func newBatchCmd() *cobra.Command {
	var echo, stats, failFast bool

	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Run one query per line against a shared cache",
		Long: `Run one query per line against a shared cache.

Each line is a taxon command without the leading "taxon", quoted like a
shell command line. Blank lines and lines starting with # are skipped.
Reads standard input when no file (or "-") is given. Every document is
loaded at most once for the whole batch; with cache.watch_sources set,
local sources that change while the batch runs are reloaded.

Example input:
  info IPSV
  search IPSV "housing" --state preferred
  validate IPSV "Homes; Roads"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrapf(err, "failed to open batch file %s", args[0])
				}
				defer f.Close()
				in = f
			}

			reg := prometheus.NewRegistry()
			c, err := openCache(cmd, func(o *cache.Options) {
				o.Name = "batch"
				o.Registerer = reg
			})
			if err != nil {
				return err
			}
			defer c.Close()

			r := &batchRunner{
				cmd:      cmd,
				cache:    c,
				echo:     echo,
				failFast: failFast,
				json:     display.ShouldOutputJSON(cmd),
			}
			runErr := r.run(in)

			if stats {
				if err := writeStats(cmd.ErrOrStderr(), reg); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&echo, "echo", false, "Print each query before its result")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print cache metrics to stderr when done")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first failing query")
	return cmd
}

type batchRunner struct {
	cmd      *cobra.Command
	cache    *cache.Cache
	echo     bool
	failFast bool
	json     bool
}

func (r *batchRunner) run(in io.Reader) error {
	out, errOut := r.cmd.OutOrStdout(), r.cmd.ErrOrStderr()
	ctx := withCache(r.cmd.Context(), r.cache)

	var queries, failures int
	scanner := bufio.NewScanner(in)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries++

		if r.echo {
			fmt.Fprintf(out, "# %s\n", line)
		}

		lineCtx := logger.WithRequestID(ctx, fmt.Sprintf("batch:%d", lineNo))
		err := r.runLine(lineCtx, line)
		if err == nil {
			continue
		}
		failures++
		fmt.Fprintf(errOut, "line %d: %v\n", lineNo, err)
		if hint := errors.Hints(err); hint != "" {
			fmt.Fprintf(errOut, "line %d: hint: %s\n", lineNo, hint)
		}
		logger.LoggerFromContext(lineCtx).Debugw("Batch query failed",
			logger.FieldQuery, line,
			logger.FieldError, err.Error())
		if r.failFast {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "failed to read batch input")
	}

	logger.Logger.Infow("Batch finished",
		"queries", queries,
		"failures", failures,
		"cached_documents", r.cache.Len())

	if failures > 0 {
		return errors.Newf("%d of %d queries failed", failures, queries)
	}
	return nil
}

func (r *batchRunner) runLine(ctx context.Context, line string) error {
	words, err := shellquote.Split(line)
	if err != nil {
		return errors.Wrap(err, "failed to parse query")
	}
	if len(words) == 0 {
		return nil
	}
	if words[0] == "batch" {
		return errors.New("batch cannot be nested")
	}
	if r.json {
		words = append(words, "--json")
	}

	sub := NewRootCmd()
	sub.SetArgs(words)
	sub.SetOut(r.cmd.OutOrStdout())
	sub.SetErr(r.cmd.ErrOrStderr())
	return sub.ExecuteContext(ctx)
}

// writeStats prints the batch cache metrics in Prometheus text format
func writeStats(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "failed to gather cache metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Package potcalc implements the potcalc command line tool: the calculator
// page as a terminal command, backed by local table files or a remote
// advisor over gRPC.
package potcalc

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/plantcare/internal/datasource"
	"github.com/LeonardoBeccarini/plantcare/internal/logging"
	"github.com/LeonardoBeccarini/plantcare/internal/services/advisor"
)

// backend is what the commands need from either a local Service or a remote
// advisor.
type backend interface {
	Calculate(ctx context.Context, in advisor.Input) (*advisor.Report, error)
	Options(ctx context.Context) (*advisor.Options, error)
}

type remote struct{ c *advisor.AdvisorClient }

func (r remote) Calculate(ctx context.Context, in advisor.Input) (*advisor.Report, error) {
	return r.c.Calculate(ctx, in)
}

func (r remote) Options(ctx context.Context) (*advisor.Options, error) {
	return r.c.Options(ctx)
}

type globalFlags struct {
	dataDir string
	remote  string
	timeout time.Duration
	asJSON  bool
	verbose bool
}

// NewRootCmd builds the potcalc command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "potcalc",
		Short: "Water and fertilizer advice for potted plants",
		Long: `potcalc computes the pot volume, the recommended water and fertilizer,
and statistics from similar past plantings.

Tables are read from --data (constants.json and data.json) unless --remote
names an advisor gRPC address.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg := logging.DefaultConfig()
			cfg.Level = "warn"
			if g.verbose {
				cfg.Level = "debug"
			}
			cfg.Format = "console"
			cfg.Output = cmd.ErrOrStderr()
			logging.Init(cfg)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.dataDir, "data", "data", "directory holding constants.json and data.json")
	pf.StringVar(&g.remote, "remote", "", "advisor gRPC address (host:port); overrides --data")
	pf.DurationVar(&g.timeout, "timeout", 10*time.Second, "overall command timeout")
	pf.BoolVar(&g.asJSON, "json", false, "print JSON instead of a table")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(newCalcCmd(g), newOptionsCmd(g))
	return root
}

// open returns the backend selected by the flags and a func releasing it.
func (g *globalFlags) open() (backend, func(), error) {
	if g.remote == "" {
		return advisor.NewService(datasource.NewFileSource(g.dataDir)), func() {}, nil
	}
	conn, err := advisor.Dial(g.remote)
	if err != nil {
		return nil, nil, err
	}
	return remote{advisor.NewAdvisorClient(conn)}, func() { _ = conn.Close() }, nil
}

func newCalcCmd(g *globalFlags) *cobra.Command {
	var in advisor.Input
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate water, fertilizer and similar-planting statistics",
		Example: `  potcalc calc --pot Clay --plant Tomato --season Summer --diameter 20 --height 18
  potcalc calc --remote localhost:9090 --pot Clay --plant Basil --season Winter -d 12 -H 11 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, closeFn, err := g.open()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()
			rep, err := b.Calculate(ctx, in)
			if err != nil {
				return describe(err)
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), rep)
			}
			return printReport(cmd.OutOrStdout(), rep)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.PotType, "pot", "", "pot type")
	f.StringVar(&in.PlantType, "plant", "", "plant species")
	f.StringVar(&in.Season, "season", "", "season")
	f.Float64VarP(&in.Diameter, "diameter", "d", 0, "pot diameter")
	f.Float64VarP(&in.Height, "height", "H", 0, "pot height")
	for _, name := range []string{"pot", "plant", "season", "diameter", "height"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newOptionsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the pot types, plant species and seasons in the constants table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, closeFn, err := g.open()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()
			opts, err := b.Options(ctx)
			if err != nil {
				return describe(err)
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), opts)
			}
			return printOptions(cmd.OutOrStdout(), opts)
		},
	}
}

// describe prefixes errors from a remote advisor with their code.
func describe(err error) error {
	if code := advisor.RemoteErrorCode(err); code != "" {
		return fmt.Errorf("%s: %w", code, err)
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printReport(w io.Writer, rep *advisor.Report) error {
	d := rep.Display
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Pot size:\t%s\n", d.PotSize)
	fmt.Fprintf(tw, "Water:\t%s\n", d.Water)
	fmt.Fprintf(tw, "Fertilizer:\t%s\n", d.Fertilizer)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Plantings\tCount\tAvg growth\tAvg yield")
	for _, row := range []struct {
		label string
		b     advisor.BucketDisplay
	}{
		{"similar", d.Similar},
		{"similar water", d.SimilarWater},
		{"less water", d.LessWater},
		{"more water", d.MoreWater},
	} {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.label, strconv.Itoa(row.b.Count), row.b.GrowthAverage, row.b.YieldAverage)
	}
	return tw.Flush()
}

func printOptions(w io.Writer, opts *advisor.Options) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range []struct {
		label string
		names []string
	}{
		{"Pot types", opts.PotTypes},
		{"Plant species", opts.PlantTypes},
		{"Seasons", opts.Seasons},
	} {
		fmt.Fprintf(tw, "%s:\t", row.label)
		for i, n := range row.names {
			if i > 0 {
				fmt.Fprint(tw, ", ")
			}
			fmt.Fprint(tw, n)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

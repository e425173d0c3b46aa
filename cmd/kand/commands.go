package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Noofbiz/kand/concepts"
	"github.com/Noofbiz/kand/config"
	"github.com/Noofbiz/kand/datasets"
	"github.com/Noofbiz/kand/logging"
	"github.com/Noofbiz/kand/report"
)

var headerStyle = lipgloss.NewStyle().Bold(true)

func (g *globals) open() (datasets.Dataset, error) {
	v, err := datasets.ParseVariant(g.cfg.Dataset.Variant)
	if err != nil {
		return nil, err
	}
	ds, err := datasets.Open(v, g.cfg.Dataset.BasePath, g.cfg.Dataset.Split, g.cfg.Options())
	if err != nil {
		return nil, err
	}
	logging.Logger.Info("loaded dataset", "dataset", ds.Name(), "samples", ds.Len())
	return ds, nil
}

// maskFlags binds the policy parameters of the mask and report commands.
type maskFlags struct {
	policy      string
	object      int
	samples     []int
	figures     []int
	objects     []int
	retainLimit int
}

func (m *maskFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.policy, "policy", "", "Masking policy: "+strings.Join(policyNames(), ", "))
	cmd.Flags().IntVar(&m.object, "object", 0, "Flat object index for the object policy")
	cmd.Flags().IntSliceVar(&m.samples, "samples", nil, "Sample indices for the specific policy")
	cmd.Flags().IntSliceVar(&m.figures, "figures", nil, "Figure indices for the specific policy")
	cmd.Flags().IntSliceVar(&m.objects, "objects", nil, "Object indices for the specific policy")
	cmd.Flags().IntVar(&m.retainLimit, "retain-limit", 0, "Red squares kept per object by red-square")
}

// apply merges explicitly set flags into cfg.Mask.
func (m *maskFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("policy") {
		cfg.Mask.Policy = m.policy
	}
	if f.Changed("object") {
		cfg.Mask.Object = m.object
	}
	if f.Changed("samples") {
		cfg.Mask.Samples = m.samples
	}
	if f.Changed("figures") {
		cfg.Mask.Figures = m.figures
	}
	if f.Changed("objects") {
		cfg.Mask.Objects = m.objects
	}
	if f.Changed("retain-limit") {
		cfg.Mask.RetainLimit = m.retainLimit
	}
}

func policyNames() []string {
	var out []string
	for _, n := range concepts.Names() {
		out = append(out, string(n))
	}
	return out
}

// maskDataset applies the configured policy when one is set.
func maskDataset(ds datasets.Dataset, cfg config.Config) (concepts.Tag, error) {
	if cfg.Mask.Policy == "" {
		return ds.Tag(), nil
	}
	return ds.MaskByName(cfg.Mask.Policy, cfg.Policy())
}

func inspectCmd(g *globals) *cobra.Command {
	var rows int
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load a split and print its first rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := g.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  samples=%d  tag=%s\n", headerStyle.Render(ds.Name()), ds.Len(), ds.Tag())
			labels := ds.Labels()
			blocks := ds.Concepts()
			for i := range min(rows, ds.Len()) {
				fmt.Fprintf(out, "%5d  labels=%v  concepts=%v\n", i, labels[i], blocks[i])
			}
			if ds.Len() > 0 {
				s, err := ds.Example(0)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "payload shape=%v\n", s.Payload.Shape)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 5, "Number of rows to print")
	return cmd
}

func maskCmd(g *globals) *cobra.Command {
	var mf maskFlags
	cmd := &cobra.Command{
		Use:   "mask",
		Short: "Apply a masking policy and print the withheld fraction per slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			mf.apply(cmd, &g.cfg)
			if g.cfg.Mask.Policy == "" {
				return fmt.Errorf("no policy given: set --policy or mask.policy")
			}
			ds, err := g.open()
			if err != nil {
				return err
			}
			tag, err := maskDataset(ds, g.cfg)
			if err != nil {
				return err
			}
			printCoverage(cmd.OutOrStdout(), ds.Name(), tag, ds.Coverage())
			return nil
		},
	}
	mf.bind(cmd)
	return cmd
}

func reportCmd(g *globals) *cobra.Command {
	var mf maskFlags
	var outDir string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write PNG charts of the withheld supervision",
		RunE: func(cmd *cobra.Command, args []string) error {
			mf.apply(cmd, &g.cfg)
			if cmd.Flags().Changed("out") {
				g.cfg.Report.OutDir = outDir
			}
			ds, err := g.open()
			if err != nil {
				return err
			}
			tag, err := maskDataset(ds, g.cfg)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("%s %s", ds.Name(), tag)
			cov, err := report.CoverageChart(g.cfg.Report.OutDir, title, ds.Coverage())
			if err != nil {
				return fmt.Errorf("failed to write coverage chart: %w", err)
			}
			rows, err := report.RowChart(g.cfg.Report.OutDir, title, ds.Concepts())
			if err != nil {
				return fmt.Errorf("failed to write row chart: %w", err)
			}
			logging.Logger.Info("wrote report", "coverage", cov, "rows", rows)
			return nil
		},
	}
	mf.bind(cmd)
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory for charts")
	return cmd
}

func exportCmd(g *globals) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a split in the precomputed .npy layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				return fmt.Errorf("--out is required")
			}
			ds, err := g.open()
			if err != nil {
				return err
			}
			return datasets.ExportPrecomputed(ds, outDir, g.cfg.Dataset.Split, g.cfg.Options().Workers)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "Output base path")
	return cmd
}

func configCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Write the resolved configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], g.cfg); err != nil {
				return err
			}
			logging.Logger.Info("wrote config", "path", args[0])
			return nil
		},
	})
	return cmd
}

func printCoverage(w io.Writer, name string, tag concepts.Tag, cov concepts.Coverage) {
	fmt.Fprintf(w, "%s  %s  rows=%d  withheld=%.3f  fully-withheld-rows=%d\n",
		headerStyle.Render(name), tag, cov.Rows, cov.Total(), cov.FullyWithheldRows)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-6s %6s %6s %6s %6s %6s %6s", "figure", "c0", "c1", "c2", "s0", "s1", "s2")))
	for f := range concepts.Figures {
		fmt.Fprintf(w, "%-6d", f)
		for s := range concepts.Slots {
			fmt.Fprintf(w, " %6.3f", cov.Fraction(f, s))
		}
		fmt.Fprintln(w)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Noofbiz/kand/config"
	"github.com/Noofbiz/kand/logging"
)

// Set via ldflags at build time
var version = "dev"

// globals collects the persistent flags shared by every command.
type globals struct {
	configPath string
	logLevel   string
	noColor    bool

	variant    string
	base       string
	split      string
	finetuning int
	workers    int
	cachePath  string

	cfg config.Config
}

func main() {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:           "kand",
		Short:         "Load and mask Kandinsky concept supervision",
		Long:          "Assemble aligned payload, label and concept columns from Kandinsky dataset layouts and withhold concept supervision with deterministic policies.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.resolve(cmd)
		},
	}
	rootCmd.Version = version

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&g.noColor, "no-color", false, "Disable colored output")
	pf.StringVar(&g.variant, "variant", "", "Dataset layout: kand, prekand, minikand or clipkand")
	pf.StringVar(&g.base, "base", "", "Dataset base path")
	pf.StringVar(&g.split, "split", "", "Dataset split (train, val, test)")
	pf.IntVar(&g.finetuning, "finetuning", 0, "Number of finetuning units kept supervised")
	pf.IntVar(&g.workers, "workers", 0, "Parallel readers (0 = NumCPU)")
	pf.StringVar(&g.cachePath, "cache", "", "Path to a gob record cache")

	rootCmd.AddGroup(
		&cobra.Group{ID: "data", Title: "Dataset Commands:"},
		&cobra.Group{ID: "config", Title: "Configuration:"},
	)
	for _, c := range []*cobra.Command{inspectCmd(g), maskCmd(g), reportCmd(g), exportCmd(g)} {
		c.GroupID = "data"
		rootCmd.AddCommand(c)
	}
	configC := configCmd(g)
	configC.GroupID = "config"
	rootCmd.AddCommand(configC)

	if err := rootCmd.Execute(); err != nil {
		logging.Logger.Error(err.Error())
		os.Exit(1)
	}
}

// resolve loads the config file and applies explicitly set flags over it.
func (g *globals) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if flags.Changed("no-color") {
		cfg.Log.NoColor = g.noColor
	}
	if flags.Changed("variant") {
		cfg.Dataset.Variant = g.variant
	}
	if flags.Changed("base") {
		cfg.Dataset.BasePath = g.base
	}
	if flags.Changed("split") {
		cfg.Dataset.Split = g.split
	}
	if flags.Changed("finetuning") {
		cfg.Dataset.Finetuning = g.finetuning
	}
	if flags.Changed("workers") {
		cfg.Dataset.Workers = g.workers
	}
	if flags.Changed("cache") {
		cfg.Dataset.CachePath = g.cachePath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logging.Init(cfg.Log.Level, cfg.Log.NoColor); err != nil {
		return err
	}
	g.cfg = cfg
	return nil
}

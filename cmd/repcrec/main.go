// Command repcrec runs the replicated, concurrency-controlled toy
// database described by spec.md: strict two-phase locking with wait-die
// deadlock avoidance for read-write transactions, and multiversion
// snapshot reads for read-only ones, over a configurable number of
// sites and variables.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blr246/adbs-repcrec/internal/config"
	"github.com/blr246/adbs-repcrec/internal/coordinator"
	"github.com/blr246/adbs-repcrec/internal/durable"
	"github.com/blr246/adbs-repcrec/internal/logutil"
	"github.com/blr246/adbs-repcrec/internal/script"
	"github.com/blr246/adbs-repcrec/internal/sitedir"
)

var (
	configPath string
	dataDir    string
	siteCount  int
	varCount   int
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "repcrec",
		Short: "A replicated, concurrency-controlled toy database",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for file-backed persistence (in-memory if empty)")
	root.PersistentFlags().IntVar(&siteCount, "sites", 0, "number of sites (overrides config)")
	root.PersistentFlags().IntVar(&varCount, "vars", 0, "number of variables (overrides config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCommand())
	root.AddCommand(newShellCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if siteCount > 0 {
		cfg.SiteCount = siteCount
	}
	if varCount > 0 {
		cfg.VarCount = varCount
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildCoordinator(cfg *config.Config) (*coordinator.Coordinator, error) {
	logutil.SetLevelByString(cfg.LogLevel)

	dir, err := sitedir.New(cfg.SiteCount, cfg.VarCount, cfg.Defaults)
	if err != nil {
		return nil, err
	}

	factory := coordinator.MemStoreFactory
	if cfg.DataDir != "" {
		factory = func(siteID int, defaults map[int]int) (durable.Store, error) {
			path := fmt.Sprintf("%s/site%d", cfg.DataDir, siteID)
			return durable.NewFileStore(path, defaults)
		}
	}

	return coordinator.New(dir, factory)
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>",
		Short: "Run a command script (optionally with assertCommitted/assertAborted assertions) and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			coord, err := buildCoordinator(cfg)
			if err != nil {
				return err
			}

			contents, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			commandText, assertText := script.SplitTestFile(string(contents))

			runner := script.NewRunner(coord)
			if err := runner.Run(strings.NewReader(commandText)); err != nil {
				return err
			}
			for _, line := range runner.Dumps() {
				fmt.Println(line)
			}

			assertions, err := script.ParseAssertions(assertText)
			if err != nil {
				return err
			}
			if len(assertions) == 0 {
				return nil
			}

			failures := script.Check(assertions, runner.CommitAbortLog())
			for _, f := range failures {
				if !f.Found {
					fmt.Printf("FAIL: T%d expected %v, but it never ended\n", f.Tx, f.Expected)
					continue
				}
				fmt.Printf("FAIL: T%d expected %v, got %v\n", f.Tx, f.Expected, f.Actual)
			}
			if len(failures) > 0 {
				os.Exit(1)
			}
			fmt.Printf("PASS: %d assertion(s)\n", len(assertions))
			return nil
		},
	}
}

func newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Read commands interactively from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			coord, err := buildCoordinator(cfg)
			if err != nil {
				return err
			}
			runner := script.NewRunner(coord)
			if err := runner.Run(os.Stdin); err != nil {
				return err
			}
			for _, line := range runner.Dumps() {
				fmt.Println(line)
			}
			return nil
		},
	}
}

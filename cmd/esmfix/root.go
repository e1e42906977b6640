package main

import (
	"esmfix/internal/core/config"

	"github.com/spf13/cobra"
)

// options holds the flags shared by the fix and watch commands.
type options struct {
	configPath         string
	rewriteTypeImports bool
	style              string
	scanner            string
	followDeps         bool
	dryRun             bool
	verbose            bool
	logFormat          string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "esmfix [flags] <path>...",
		Short: "Make ES module import specifiers explicit",
		Long: `esmfix walks the given files and directories, follows every relative,
absolute and bare import it finds, and rewrites specifiers that omit a file
extension or an index file so that an ES module loader can load them as
written.

Examples:
  esmfix src                     # fix everything reachable from src
  esmfix --style emit src        # name the emitted .js file for .ts sources
  esmfix --dry-run src/main.ts   # report rewrites without writing`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(cmd.ErrOrStderr(), opts.logFormat, opts.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd, opts, args)
		},
	}
	cmd.SetVersionTemplate("esmfix v{{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultFile, "Path to config file")
	flags.BoolVar(&opts.rewriteTypeImports, "rewrite-type-imports", false, "Also rewrite type-only imports and exports")
	flags.StringVar(&opts.style, "style", config.StyleSource, "Rewrite style: source or emit")
	flags.StringVar(&opts.scanner, "scanner", config.ScannerPattern, "Statement scanner: pattern or syntax")
	flags.BoolVar(&opts.followDeps, "follow-deps", false, "Traverse the entry file of located dependencies")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Report rewrites without writing files")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.logFormat, "log-format", logFormatText, "Log format: text, json or pretty")

	cmd.AddCommand(newWatchCmd(opts), newVersionCmd())
	return cmd
}

func runFix(cmd *cobra.Command, opts *options, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	shutdown, err := startTracing(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	report, err := a.walker.Run(ctx, args)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), report)
	return nil
}

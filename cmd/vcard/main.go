package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coolbeans/vcard/pkg/catalog"
	"github.com/coolbeans/vcard/pkg/config"
	"github.com/coolbeans/vcard/pkg/vcard"
	"github.com/coolbeans/vcard/pkg/watch"
)

var version = "0.1.0"

// app holds the state shared by every subcommand once the root command has
// loaded its configuration.
type app struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	parser  *vcard.Parser
	logger  zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	state := &app{}

	rootCmd := &cobra.Command{
		Use:   "vcard",
		Short: "vCard 4.0 parser and formatter",
		Long: `vcard reads, validates and rewrites vCard 4.0 (RFC 6350) files.

It can:
  - Export a card as JSON or YAML for inspection
  - Re-serialize a card in canonical folded form
  - Validate files and directories, reporting the failing line
  - Watch a directory and validate cards as they change
  - List the property catalog, including configured extensions`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.load(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (YAML, or TOML when ending in .toml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(parseCmd(state))
	rootCmd.AddCommand(fmtCmd(state))
	rootCmd.AddCommand(validateCmd(state))
	rootCmd.AddCommand(watchCmd(state))
	rootCmd.AddCommand(catalogCmd(state))

	return rootCmd
}

// load reads the configuration and builds the catalog, parser and logger.
func (a *app) load(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.catalog = cat
	a.parser = vcard.NewParser(cat)
	a.logger = initLogger(cmd.ErrOrStderr(), cfg.Level())
	if configPath != "" {
		a.logger.Debug().Str("path", configPath).Msg("loaded config")
	}
	return nil
}

// readDocument parses the card at path, or standard input for "-".
func (a *app) readDocument(cmd *cobra.Command, path string) (*vcard.Document, error) {
	var input io.Reader = cmd.InOrStdin()
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer file.Close()
		input = file
	}
	doc, err := a.parser.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func parseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a card and print it as JSON or YAML",
		Long: `Parse a vCard file and print its properties, parameters and decoded
values. Use "-" to read from standard input.

Example:
  vcard parse contact.vcf
  vcard parse contact.vcf --format yaml
  cat contact.vcf | vcard parse -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if !cmd.Flags().Changed("format") {
				format = a.cfg.Output.Format
			}

			doc, err := a.readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			var output []byte
			switch strings.ToLower(format) {
			case config.FormatJSON:
				output, err = vcard.MarshalJSON(doc)
			case config.FormatYAML:
				output, err = vcard.MarshalYAML(doc)
			default:
				return fmt.Errorf("unsupported format %q (use json or yaml)", format)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(output), "\n"))
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", config.FormatJSON, "Output format: json or yaml")
	return cmd
}

func fmtCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Rewrite a card in canonical form",
		Long: `Parse a vCard file and serialize it again: CRLF line endings, lines
folded at 75 octets, upper-case BEGIN/END, basic-format dates and minimal
parameter quoting.

Example:
  vcard fmt contact.vcf
  vcard fmt contact.vcf --write
  vcard fmt contact.vcf --assign-uid --write`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			write, _ := cmd.Flags().GetBool("write")
			assignUID, _ := cmd.Flags().GetBool("assign-uid")
			path := args[0]
			if write && path == "-" {
				return fmt.Errorf("--write needs a file, not standard input")
			}

			doc, err := a.readDocument(cmd, path)
			if err != nil {
				return err
			}
			if _, hasUID := doc.UID(); assignUID && !hasUID {
				doc, err = doc.With(vcard.NewUID())
				if err != nil {
					return err
				}
				uid, _ := doc.UID()
				a.logger.Info().Str("path", path).Str("uid", uid).Msg("assigned uid")
			}

			serialized, err := vcard.Serialize(doc)
			if err != nil {
				return err
			}
			if !write {
				fmt.Fprint(cmd.OutOrStdout(), serialized)
				return nil
			}

			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", path, err)
			}
			if err := os.WriteFile(path, []byte(serialized), info.Mode().Perm()); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			a.logger.Info().Str("path", path).Msg("formatted")
			return nil
		},
	}
	cmd.Flags().BoolP("write", "w", false, "Write the result back to the file")
	cmd.Flags().Bool("assign-uid", false, "Add a urn:uuid UID when the card has none")
	return cmd
}

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate PATH...",
		Short: "Validate cards and directories of cards",
		Long: `Validate each file, or every card file directly inside each directory.
A failure names the line and the stage that rejected it: fold, grammar,
param, value, structural or cardinality.

Example:
  vcard validate contact.vcf
  vcard validate contacts/ other.vcf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []watch.Result
			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					results = append(results, watch.Result{Path: path, Err: err})
					continue
				}
				if !info.IsDir() {
					results = append(results, watch.ValidateFile(a.parser, path))
					continue
				}
				dirResults, err := watch.ValidateDir(a.parser, path, a.cfg.Watch.Extensions)
				if err != nil {
					return err
				}
				results = append(results, dirResults...)
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, result := range results {
				a.logger.Debug().Str("path", result.Path).Bool("ok", result.OK()).Msg("validated")
				if result.OK() {
					fmt.Fprintf(out, "OK    %s (%s)\n", result.Path, result.Document.FormattedName())
					continue
				}
				failed++
				fmt.Fprintf(out, "FAIL  %s: %v\n", result.Path, result.Err)
			}

			fmt.Fprintf(out, "\n%d file(s) checked, %d failed\n", len(results), failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed validation", failed, len(results))
			}
			return nil
		},
	}
}

func watchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Validate cards in a directory as they change",
		Long: `Watch a directory and validate every card file when it is created or
written. Results are logged; the command runs until interrupted.

Example:
  vcard watch contacts/
  vcard watch contacts/ --initial --log-level debug`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			initial, _ := cmd.Flags().GetBool("initial")

			debounce, err := a.cfg.DebounceInterval()
			if err != nil {
				return err
			}

			if initial {
				results, err := watch.ValidateDir(a.parser, dir, a.cfg.Watch.Extensions)
				if err != nil {
					return err
				}
				for _, result := range results {
					result.Log(a.logger)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher := watch.New(dir, a.parser, watch.Options{
				Extensions: a.cfg.Watch.Extensions,
				Debounce:   debounce,
				Logger:     a.logger,
			})
			return watcher.Run(ctx)
		},
	}
	cmd.Flags().Bool("initial", false, "Validate existing files before watching")
	return cmd
}

func catalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the known property types",
		Long: `List every property type in the catalog with its cardinality, default
value type, permitted VALUE overrides and structured component count.
Extensions declared in the config file are included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-14s %-5s %-18s %-12s %s\n", "PROPERTY", "CARD", "DEFAULT", "COMPONENTS", "ALLOWED")
			for _, entry := range a.catalog.Entries() {
				components := "-"
				if entry.Components.Structured() {
					components = entry.Components.String()
				}
				fmt.Fprintf(out, "%-14s %-5s %-18s %-12s %s\n",
					entry.Type, entry.Cardinality.Symbol(), entry.Default, components, allowedKinds(entry))
			}
			return nil
		},
	}
}

func allowedKinds(entry catalog.Entry) string {
	if entry.Allowed == nil {
		return "any"
	}
	names := make([]string, 0, len(entry.Allowed))
	for _, kind := range entry.Allowed {
		names = append(names, kind.String())
	}
	return strings.Join(names, ",")
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// kontakte-import imports contacts from CSV, TXT, XLSX and vCard files
// into a kontakte server.
//
// By default it runs the interactive wizard when stdout is a terminal:
// pick a template, name the files, check the column mapping page by
// page, then import. With --batch (or when stdout is not a terminal)
// it runs the same flow headless: the automatic mapping plus any
// --map overrides is imported as is.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/kontakte/lib/cli"
	"github.com/bureau-foundation/kontakte/lib/config"
	"github.com/bureau-foundation/kontakte/lib/importclient"
	"github.com/bureau-foundation/kontakte/lib/version"
	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

func main() {
	os.Exit(cli.Exit(run(os.Args[1:]), func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format, args...)
	}))
}

// options holds the parsed command line.
type options struct {
	configPath    string
	server        string
	template      string
	mappings      []string
	batch         bool
	listTemplates bool
	templatesFile string
	noColor       bool
	verbose       bool
	showVersion   bool
}

func run(args []string) error {
	var opts options
	flagSet := pflag.NewFlagSet("kontakte-import", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to kontakte.yaml (default: $KONTAKTE_CONFIG, else built-in defaults)")
	flagSet.StringVar(&opts.server, "server", "", "contact server URL (overrides client.server_url)")
	flagSet.StringVarP(&opts.template, "template", "t", "", "target template, by id or name (default: the standard template)")
	flagSet.StringArrayVarP(&opts.mappings, "map", "m", nil, "map a property to a column, as Property=Header; repeatable; an empty header unmaps")
	flagSet.BoolVar(&opts.batch, "batch", false, "import without the interactive wizard")
	flagSet.BoolVar(&opts.listTemplates, "list-templates", false, "print the available templates and exit")
	flagSet.StringVar(&opts.templatesFile, "templates-file", "", "read templates from this JSONC file instead of the server")
	flagSet.BoolVar(&opts.noColor, "no-color", false, "render the wizard without colour")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug records")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return cli.Validation("%w", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if opts.showVersion {
		fmt.Println("kontakte-import " + version.Info())
		return nil
	}

	cfg, err := config.Resolve(opts.configPath)
	if err != nil {
		return cli.Validation("loading configuration: %w", err)
	}
	if opts.server != "" {
		cfg.Client.ServerURL = opts.server
	}
	if opts.templatesFile != "" {
		cfg.Client.TemplatesFile = opts.templatesFile
	}
	if err := cfg.Validate(); err != nil {
		return cli.Validation("invalid configuration: %w", err)
	}
	overrides, err := parseMappings(opts.mappings)
	if err != nil {
		return err
	}

	logger := cli.NewCommandLogger(opts.verbose).With("command", "kontakte-import")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := importclient.New(importclient.Config{
		BaseURL:        cfg.Client.ServerURL,
		RequestTimeout: cfg.Client.RequestTimeout,
		CompressAbove:  cfg.Client.CompressAbove,
		Encoding:       cfg.Client.Encoding,
		Logger:         logger,
	})
	if err != nil {
		return cli.Validation("%w", err)
	}

	catalog, err := loadCatalog(ctx, client, cfg.Client)
	if err != nil {
		return err
	}
	if opts.listTemplates {
		printTemplates(catalog)
		return nil
	}

	template, err := resolveTemplate(catalog, opts.template)
	if err != nil {
		return err
	}
	paths := flagSet.Args()

	if opts.batch || !term.IsTerminal(int(os.Stdout.Fd())) {
		if len(paths) == 0 {
			return cli.Validation("no files given").
				WithHint("Usage: kontakte-import --batch [flags] FILE...")
		}
		return runBatch(ctx, batchConfig{
			transport: client,
			catalog:   catalog,
			client:    cfg.Client,
			logger:    logger,
			stdout:    os.Stdout,
			template:  template,
			paths:     paths,
			overrides: overrides,
		})
	}
	if len(overrides) > 0 {
		logger.Warn("--map applies to --batch only; use the mapping pages instead")
	}
	return runInteractive(ctx, interactiveConfig{
		transport: client,
		catalog:   catalog,
		client:    cfg.Client,
		verbose:   opts.verbose,
		noColor:   opts.noColor,
		template:  template,
		paths:     paths,
	})
}

// loadCatalog reads the templates file when one is configured and asks
// the server otherwise.
func loadCatalog(ctx context.Context, client *importclient.Client, clientConfig config.ClientConfig) (*vorlage.Catalog, error) {
	if clientConfig.TemplatesFile != "" {
		catalog, err := vorlage.LoadCatalog(clientConfig.TemplatesFile)
		if err != nil {
			return nil, cli.Validation("%w", err)
		}
		return catalog, nil
	}
	catalog, err := client.Templates(ctx)
	if err != nil {
		return nil, cli.Transient("fetching templates from %s: %w", clientConfig.ServerURL, err).
			WithHint("Is kontakte-server running? Pass --server or --templates-file.")
	}
	return catalog, nil
}

// resolveTemplate finds the template named by selector, which is an id
// or a case-insensitive name. An empty selector picks the catalog's
// default template.
func resolveTemplate(catalog *vorlage.Catalog, selector string) (*vorlage.Template, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		template, ok := catalog.Default()
		if !ok {
			return nil, cli.NotFound("the template catalog is empty")
		}
		return template, nil
	}
	if id, err := strconv.ParseInt(selector, 10, 64); err == nil {
		if template, ok := catalog.Find(id); ok {
			return template, nil
		}
	}
	for index := range catalog.Templates {
		if strings.EqualFold(catalog.Templates[index].Name, selector) {
			return &catalog.Templates[index], nil
		}
	}
	return nil, cli.NotFound("template %q not found", selector).
		WithHint("Run kontakte-import --list-templates to see the available templates.")
}

// parseMappings parses --map values of the form Property=Header. A
// later value for the same property wins. A header may feed only one
// property.
func parseMappings(values []string) (map[string]string, error) {
	overrides := make(map[string]string, len(values))
	for _, value := range values {
		property, header, found := strings.Cut(value, "=")
		property = strings.TrimSpace(property)
		if !found || property == "" {
			return nil, cli.Validation("--map %q: want Property=Header", value)
		}
		overrides[property] = strings.TrimSpace(header)
	}
	owners := make(map[string]string, len(overrides))
	for _, property := range sortedKeys(overrides) {
		header := overrides[property]
		if header == "" {
			continue
		}
		if owner, taken := owners[header]; taken {
			return nil, cli.Validation("--map: column %q is mapped to both %q and %q", header, owner, property).
				WithHint("A column can feed only one property.")
		}
		owners[header] = property
	}
	return overrides, nil
}

func printTemplates(catalog *vorlage.Catalog) {
	for _, template := range catalog.Templates {
		marker := ""
		if template.IsStandard {
			marker = " (Standard)"
		}
		fmt.Printf("%4d  %s%s\n", template.ID, template.Name, marker)
		for _, group := range template.Groups {
			names := make([]string, 0, len(group.Properties))
			for _, property := range group.Properties {
				names = append(names, property.Name)
			}
			fmt.Printf("      %s: %s\n", group.Name, strings.Join(names, ", "))
		}
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `kontakte-import: import contacts from files into a kontakte server.

Reads .csv (comma or semicolon), .txt (tab-separated), .xlsx and .vcf
files. The server parses the files; the wizard maps their columns to
the properties of a template, one template group per page, and then
imports every row as a contact.

Usage:
  kontakte-import [flags] [FILE...]

Examples:
  # Interactive wizard with two files pre-filled
  kontakte-import kunden.csv adressen.vcf

  # Headless import into the "Unternehmen" template
  kontakte-import --batch --template Unternehmen firmen.xlsx

  # Override the automatic mapping
  kontakte-import --batch --map Ort=Stadt --map "Telefon (privat)=Tel" kunden.csv

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

// sortedKeys returns the keys of m in order, for deterministic logs.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// levelFor returns the minimum level of background log records shown
// while the wizard owns the terminal.
func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

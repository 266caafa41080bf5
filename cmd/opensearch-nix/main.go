// opensearch-nix fetches a website, follows the OpenSearch description
// link announced in its <head>, and prints the search engine as a Nix
// attribute set suitable for a browser's declarative search settings.
//
// Several websites may be given; they are converted concurrently and
// printed in argument order.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"

	"github.com/reglet-dev/opensearch-nix/application/config"
	"github.com/reglet-dev/opensearch-nix/application/converter"
	"github.com/reglet-dev/opensearch-nix/application/template"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/reglet-dev/opensearch-nix/infrastructure/htmlsearch"
	"github.com/reglet-dev/opensearch-nix/infrastructure/httpclient"
	"github.com/reglet-dev/opensearch-nix/infrastructure/osdxml"
	"github.com/reglet-dev/opensearch-nix/log"
)

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			stop()
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// exitError carries an exit code for failures that were already reported.
type exitError struct {
	failed, total int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("%d of %d websites could not be converted", e.failed, e.total)
}

func (e *exitError) ExitCode() int { return 1 }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		verbose    bool
		configPath string
		logFormat  string
	)
	defaults := config.DefaultSettings()

	flagSet := pflag.NewFlagSet("opensearch-nix", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "report progress on stderr")
	flagSet.StringVar(&configPath, "config", "", "YAML file with converter settings")
	flagSet.StringVar(&logFormat, "log-format", "auto", "log encoding: auto, text or json")
	flagSet.Duration("timeout", defaults.Timeout, "timeout for each HTTP request")
	flagSet.Int("max-redirects", defaults.MaxRedirects, "redirects followed per request")
	flagSet.Int64("max-body-size", defaults.MaxBodySize, "largest accepted response body in bytes")
	flagSet.String("user-agent", defaults.UserAgent, "User-Agent header")
	flagSet.Int("jobs", defaults.Jobs, "websites converted concurrently")
	flagSet.Float64("rate-limit", defaults.RateLimit, "HTTP requests per second across all jobs (0 = unlimited)")
	flagSet.BoolP("help", "h", false, "show help")

	if len(args) > 0 && args[0] == "--version" {
		fmt.Fprintf(stdout, "opensearch-nix %s\n", version)
		return nil
	}

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}

	if flagSet.NArg() == 0 {
		printHelp(stderr, flagSet)
		return fmt.Errorf("at least one website is required")
	}

	format, ok := log.ParseFormat(logFormat)
	if !ok {
		return fmt.Errorf("unknown --log-format %q", logFormat)
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := log.NewLogger(stderr, log.WithLevel(level), log.WithFormat(format))

	settings, err := loadSettings(flagSet, configPath, defaults)
	if err != nil {
		return err
	}

	websites, err := parseWebsites(flagSet.Args())
	if err != nil {
		return err
	}

	client := httpclient.New(
		httpclient.WithTimeout(settings.Timeout),
		httpclient.WithMaxRedirects(settings.MaxRedirects),
		httpclient.WithMaxBodySize(settings.MaxBodySize),
		httpclient.WithUserAgent(settings.UserAgent),
		httpclient.WithRateLimit(settings.RateLimit),
		httpclient.WithLogger(logger),
	)
	conv := converter.New(
		client,
		htmlsearch.NewLocator(),
		osdxml.NewDecoder(),
		template.NewNixRenderer(),
		converter.WithLogger(logger),
		converter.WithJobs(settings.Jobs),
	)

	results, err := conv.ConvertAll(ctx, websites)
	if err != nil {
		return err
	}

	failed := 0
	printed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(stderr, "error: %s: %v\n", r.Website, r.Err)
			logFailure(logger, r)
			continue
		}
		if printed > 0 {
			fmt.Fprintln(stdout)
		}
		fmt.Fprintln(stdout, string(r.Nix))
		printed++
	}

	if failed > 0 {
		return &exitError{failed: failed, total: len(results)}
	}
	return nil
}

// logFailure records a failed website as a structured debug record.
func logFailure(logger *slog.Logger, r converter.Result) {
	detail := errors.ToErrorDetail(r.Err)
	attrs := []any{
		"website", r.Website.String(),
		"type", detail.Type,
		"message", detail.Message,
	}
	if detail.Code != "" {
		attrs = append(attrs, "code", detail.Code)
	}
	if detail.IsTimeout {
		attrs = append(attrs, "timeout", true)
	}
	if len(detail.Details) > 0 {
		attrs = append(attrs, "details", detail.Details)
	}
	logger.Debug("conversion failed", attrs...)
}

// loadSettings layers defaults, the optional config file, and explicitly
// set flags, then validates the result.
func loadSettings(flagSet *pflag.FlagSet, configPath string, defaults config.Settings) (config.Settings, error) {
	settings := defaults
	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return settings, err
		}
		if settings, err = config.Apply(cfg, settings); err != nil {
			return settings, err
		}
	}

	if flagSet.Changed("timeout") {
		settings.Timeout, _ = flagSet.GetDuration("timeout")
	}
	if flagSet.Changed("max-redirects") {
		settings.MaxRedirects, _ = flagSet.GetInt("max-redirects")
	}
	if flagSet.Changed("max-body-size") {
		settings.MaxBodySize, _ = flagSet.GetInt64("max-body-size")
	}
	if flagSet.Changed("user-agent") {
		settings.UserAgent, _ = flagSet.GetString("user-agent")
	}
	if flagSet.Changed("jobs") {
		settings.Jobs, _ = flagSet.GetInt("jobs")
	}
	if flagSet.Changed("rate-limit") {
		settings.RateLimit, _ = flagSet.GetFloat64("rate-limit")
	}

	return settings, settings.Validate()
}

func parseWebsites(args []string) ([]*url.URL, error) {
	websites := make([]*url.URL, 0, len(args))
	for _, arg := range args {
		u, err := url.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid website %q: %w", arg, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("invalid website %q: scheme must be http or https", arg)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("invalid website %q: missing host", arg)
		}
		websites = append(websites, u)
	}
	return websites, nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, strings.TrimLeft(`
Fetches a website, follows its OpenSearch description link and prints the
search engine as a Nix attribute set.

Usage:
  opensearch-nix [flags] <website> [<website>...]
  opensearch-nix --version

Examples:
  # Print the Wikipedia search engine
  opensearch-nix https://en.wikipedia.org

  # Show progress while converting two sites, two at a time
  opensearch-nix -v --jobs 2 https://github.com https://crates.io

Settings are read from defaults, then --config, then flags.

Flags:
`, "\n"))
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}

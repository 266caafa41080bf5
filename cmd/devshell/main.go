// devshell checks and converts the development shell manifest: the list
// of external tools (compiler, analyzer, build tool, build configuration
// helper, cryptography library) the provisioning system places on PATH.
//
// The manifest may be written as YAML, JSON with comments, TOML or a Nix
// pkgs.mkShell expression; the file extension selects the format.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/reglet-dev/opensearch-nix/application/devshell"
	"github.com/reglet-dev/opensearch-nix/application/schema"
	"github.com/reglet-dev/opensearch-nix/application/validation"
	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/infrastructure/codec"
	"github.com/reglet-dev/opensearch-nix/infrastructure/manifeststore"
	"github.com/reglet-dev/opensearch-nix/log"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// exitError reports a failure whose details were already printed.
type exitError struct {
	msg string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return 1 }

type command struct {
	name    string
	summary string
	run     func(env *environment, args []string) error
}

var commands = []command{
	{"check", "validate the manifest, exit 1 on violations", runCheck},
	{"fmt", "normalize the manifest and re-encode it", runFmt},
	{"convert", "translate the manifest to another format", runConvert},
	{"schema", "print the manifest JSON Schema", runSchema},
	{"list", "print the declared tools, one per line, sorted", runList},
}

type environment struct {
	stdout    io.Writer
	stderr    io.Writer
	logger    *slog.Logger
	validator *validation.ManifestValidator
	service   *devshell.Service
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		if len(args) == 0 {
			return fmt.Errorf("a command is required")
		}
		return nil
	}

	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		validator, err := validation.NewManifestValidator()
		if err != nil {
			return err
		}
		logger := log.NewLogger(stderr, log.WithLevel(slog.LevelWarn))
		env := &environment{
			stdout:    stdout,
			stderr:    stderr,
			logger:    logger,
			validator: validator,
			service:   devshell.NewService(validator, devshell.WithLogger(logger)),
		}
		if err := cmd.run(env, args[1:]); err != pflag.ErrHelp {
			return err
		}
		return nil
	}

	printUsage(stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

// newFlagSet returns a flag set with the common --file and --verbose flags.
func newFlagSet(env *environment, name string, file *string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("devshell "+name, pflag.ContinueOnError)
	flagSet.SetOutput(env.stderr)
	flagSet.StringVarP(file, "file", "f", manifeststore.DefaultPath, "manifest path; the extension selects the format")
	flagSet.BoolP("verbose", "v", false, "log debug output")
	return flagSet
}

func parse(env *environment, flagSet *pflag.FlagSet, args []string) error {
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	if verbose, _ := flagSet.GetBool("verbose"); verbose {
		env.logger = log.NewLogger(env.stderr, log.WithLevel(slog.LevelDebug))
		env.service = devshell.NewService(env.validator, devshell.WithLogger(env.logger))
	}
	return nil
}

// loadChecked reads the manifest and fails when it breaks any rule,
// printing every violation.
func loadChecked(env *environment, store *manifeststore.FileStore) (*entities.Manifest, error) {
	data, c, err := store.LoadRaw()
	if err != nil {
		return nil, err
	}
	manifest, result, err := env.service.Check(data, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", store.Path(), err)
	}
	if !result.Valid {
		for _, e := range result.Errors {
			fmt.Fprintf(env.stderr, "%s: %s\n", store.Path(), e.String())
		}
		return nil, &exitError{msg: fmt.Sprintf("%s: %d violation(s)", store.Path(), len(result.Errors))}
	}
	return manifest, nil
}

func runCheck(env *environment, args []string) error {
	var file string
	flagSet := newFlagSet(env, "check", &file)
	if err := parse(env, flagSet, args); err != nil {
		return err
	}

	store := manifeststore.NewFileStore(manifeststore.WithPath(file))
	manifest, err := loadChecked(env, store)
	if err != nil {
		return err
	}
	if dups := devshell.Duplicates(manifest); len(dups) > 0 {
		env.logger.Warn("duplicate tools are ignored", "path", store.Path(), "tools", dups)
	}
	fmt.Fprintf(env.stdout, "%s: ok (%d tools)\n", store.Path(), len(manifest.Set()))
	return nil
}

func runFmt(env *environment, args []string) error {
	var file string
	var write bool
	flagSet := newFlagSet(env, "fmt", &file)
	flagSet.BoolVarP(&write, "write", "w", false, "write the result back to the file instead of stdout")
	if err := parse(env, flagSet, args); err != nil {
		return err
	}

	store := manifeststore.NewFileStore(manifeststore.WithPath(file))
	manifest, err := loadChecked(env, store)
	if err != nil {
		return err
	}
	c, err := store.Codec()
	if err != nil {
		return err
	}
	if _, err := env.service.RoundTrip(manifest, c); err != nil {
		return err
	}

	normalized := devshell.Normalize(manifest)
	if write {
		return store.Save(normalized)
	}
	data, err := c.Encode(normalized)
	if err != nil {
		return err
	}
	_, err = env.stdout.Write(data)
	return err
}

func runConvert(env *environment, args []string) error {
	var file, out string
	flagSet := newFlagSet(env, "convert", &file)
	flagSet.StringVarP(&out, "out", "o", "", "output path; the extension selects the format")
	if err := parse(env, flagSet, args); err != nil {
		return err
	}
	if out == "" {
		return fmt.Errorf("--out is required")
	}

	in := manifeststore.NewFileStore(manifeststore.WithPath(file))
	manifest, err := loadChecked(env, in)
	if err != nil {
		return err
	}

	target := manifeststore.NewFileStore(manifeststore.WithPath(out))
	c, err := target.Codec()
	if err != nil {
		return err
	}
	if _, err := env.service.RoundTrip(manifest, c); err != nil {
		return err
	}
	if err := target.Save(devshell.Normalize(manifest)); err != nil {
		return err
	}
	env.logger.Debug("converted manifest", "from", in.Path(), "to", target.Path(), "format", c.Format())
	return nil
}

func runSchema(env *environment, args []string) error {
	flagSet := pflag.NewFlagSet("devshell schema", pflag.ContinueOnError)
	flagSet.SetOutput(env.stderr)
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	data, err := schema.ManifestSchema()
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, string(data))
	return nil
}

func runList(env *environment, args []string) error {
	var file string
	flagSet := newFlagSet(env, "list", &file)
	if err := parse(env, flagSet, args); err != nil {
		return err
	}

	manifest, err := manifeststore.NewFileStore(manifeststore.WithPath(file)).Load()
	if err != nil {
		return err
	}
	for _, id := range manifest.Set() {
		fmt.Fprintln(env.stdout, id)
	}
	return nil
}

func printUsage(w io.Writer) {
	var b strings.Builder
	b.WriteString(`Checks and converts the development shell manifest.

Usage:
  devshell <command> [flags]

Commands:
`)
	for _, cmd := range commands {
		fmt.Fprintf(&b, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(&b, `
The manifest defaults to %s. Formats: %s.
Run "devshell <command> --help" for the flags of a command.
`, manifeststore.DefaultPath, strings.Join(codec.NewRegistry().Formats(), ", "))
	fmt.Fprint(w, b.String())
}

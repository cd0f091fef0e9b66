package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	cutarelease "github.com/bcomnes/cutarelease/pkg"
)

const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

const description = `Cut a release of your project.

Updates your changelog (CHANGES.md by default), adds a git tag, pushes
those changes, then updates your version to the next patch level and
creates a new changelog section for that new version.

The top changelog section must look like "## [name] X.Y.Z (not yet released)"
and name the version held in the first version file. Version files are
guessed when not given: package.json, VERSION.txt, VERSION, <project>.py,
lib/<project>.py, <project>.js, lib/<project>.js.

Examples:
  cutarelease -n
  cutarelease -f lib/foo.js -f package.json
  cutarelease -f python:bin/foo --no-publish`

// newCommand builds the root command. verbose receives the parsed --verbose
// value once the action runs.
func newCommand(stdout io.Writer, verbose *bool) *cli.Command {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "show CLI version and exit",
	}
	return &cli.Command{
		Name:        "cutarelease",
		Usage:       "cut a release of a git project",
		Description: description,
		Version:     Version,
		Writer:      stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "project-name",
				Aliases: []string{"p"},
				Usage:   "the name of this project (default is the base dir name)",
				Sources: cli.EnvVars("CUTARELEASE_PROJECT_NAME"),
			},
			&cli.StringSliceFlag{
				Name:    "version-file",
				Aliases: []string{"f"},
				Usage:   "`[TYPE:]PATH` of a file holding the version; may be repeated, guessed if excluded",
				Sources: cli.EnvVars("CUTARELEASE_VERSION_FILES"),
			},
			&cli.StringFlag{
				Name:    "changelog",
				Aliases: []string{"c"},
				Usage:   "path of the changelog (default CHANGES.md)",
				Sources: cli.EnvVars("CUTARELEASE_CHANGELOG"),
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"C"},
				Usage:   "project directory (a .env file is still read from the current directory)",
				Value:   ".",
				Sources: cli.EnvVars("CUTARELEASE_DIR"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "config file, relative to the project directory",
				Value:   cutarelease.DefaultConfigFile,
				Sources: cli.EnvVars("CUTARELEASE_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "do a dry-run",
				Sources: cli.EnvVars("CUTARELEASE_DRY_RUN"),
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "answer yes to every question",
				Sources: cli.EnvVars("CUTARELEASE_YES"),
			},
			&cli.BoolFlag{
				Name:    "no-publish",
				Usage:   "never offer to publish to npm or pypi",
				Sources: cli.EnvVars("CUTARELEASE_NO_PUBLISH"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "more verbose output",
				Sources: cli.EnvVars("CUTARELEASE_VERBOSE"),
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "quieter output (just warnings and errors)",
				Sources: cli.EnvVars("CUTARELEASE_QUIET"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			*verbose = cmd.Bool("verbose")
			return run(ctx, cmd, stdout)
		},
		// Errors are reported by main; a failed git or publish command must
		// not become the exit status.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func run(ctx context.Context, cmd *cli.Command, stdout io.Writer) error {
	if cmd.Args().Len() > 0 {
		return fmt.Errorf("unexpected arguments %v: cutarelease takes flags only", cmd.Args().Slice())
	}

	level := zerolog.InfoLevel
	switch {
	case cmd.Bool("verbose"):
		level = zerolog.DebugLevel
	case cmd.Bool("quiet"):
		level = zerolog.WarnLevel
	}
	logger := cutarelease.NewLogger(os.Stderr, level)

	dir := cmd.String("dir")
	cfgPath := cmd.String("config")
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(dir, cfgPath)
	}
	cfg, err := cutarelease.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	opts := cutarelease.OptionsFromConfig(cfg)
	if cmd.IsSet("project-name") {
		opts.Project = cmd.String("project-name")
	}
	if files := cmd.StringSlice("version-file"); len(files) > 0 {
		opts.VersionFiles = files
	}
	if cmd.IsSet("changelog") {
		opts.Changelog = cmd.String("changelog")
	}
	opts.DryRun = cmd.Bool("dry-run")
	if cmd.Bool("no-publish") {
		opts.Publish.Disabled = true
	}

	var prompt cutarelease.Prompter = cutarelease.NewTermPrompter(os.Stdin, stdout)
	if cmd.Bool("yes") {
		prompt = cutarelease.AssumeYes{Out: stdout}
	}

	meta, err := cutarelease.New(cutarelease.Env{
		Dir:    dir,
		Log:    logger,
		Runner: cutarelease.NewExecRunner(),
		Prompt: prompt,
	}, opts).Run(ctx)
	if err != nil {
		return err
	}

	// Summary
	switch {
	case meta.Aborted:
		fmt.Fprintf(stdout, "Release aborted (%s).\n", meta.AbortReason)
		return nil
	case meta.DryRun:
		fmt.Fprintln(stdout, "Dry run complete, no files were modified.")
	default:
		fmt.Fprintln(stdout, "Release successful!")
	}
	fmt.Fprintf(stdout, "Released Version: %s\n", meta.Version)
	fmt.Fprintf(stdout, "Next Version:     %s\n", meta.NextVersion)
	if len(meta.Actions) > 0 {
		if meta.DryRun {
			fmt.Fprintln(stdout, "Actions that would be taken:")
		} else {
			fmt.Fprintln(stdout, "Actions taken:")
		}
		for _, a := range meta.Actions {
			fmt.Fprintf(stdout, "  %s\n", a)
		}
	}
	return nil
}

func main() {
	// With SIGPIPE observed, writes to a closed stdout/stderr fail with EPIPE
	// (swallowed by PipeSafe) instead of killing the process.
	signal.Notify(make(chan os.Signal, 1), syscall.SIGPIPE)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Fprintln(os.Stderr, "\ncutarelease: interrupted")
		os.Exit(exitInterrupted)
	}()

	stdout := cutarelease.PipeSafe(os.Stdout)
	var verbose bool
	if err := newCommand(stdout, &verbose).Run(context.Background(), os.Args); err != nil {
		os.Exit(reportError(os.Stderr, err, verbose))
	}
	os.Exit(exitOK)
}

// reportError prints err as a single line and returns the exit status.
func reportError(w io.Writer, err error, verbose bool) int {
	w = cutarelease.PipeSafe(w)
	fmt.Fprintf(w, "cutarelease: error: %v\n", err)
	if verbose {
		if class := cutarelease.Class(err); class != nil {
			fmt.Fprintf(w, "cutarelease: error class: %v\n", class)
		}
		var cmdErr *cutarelease.CommandError
		if errors.As(err, &cmdErr) {
			fmt.Fprintf(w, "cutarelease: command: %s (exit status %d)\n", cmdErr.Command, cmdErr.ExitCode())
		}
	}
	return exitError
}

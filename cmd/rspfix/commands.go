package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/rspfix/internal/capability"
	"github.com/standardbeagle/rspfix/internal/config"
	"github.com/standardbeagle/rspfix/internal/debug"
	rsperrors "github.com/standardbeagle/rspfix/internal/errors"
	"github.com/standardbeagle/rspfix/internal/fsys"
	"github.com/standardbeagle/rspfix/internal/patch"
	"github.com/standardbeagle/rspfix/internal/rsp"
	"github.com/standardbeagle/rspfix/internal/watch"
	"github.com/standardbeagle/rspfix/pkg/pathutil"
)

func patchCommand() *cli.Command {
	return &cli.Command{
		Name:  "patch",
		Usage: "Patch every discovered project and solution file",
		Description: `Applies -unsafe, -define: and -r: settings from the compiler response
files to the generated projects, and normalizes solution files.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Exit with an error when any file could not be processed",
			},
		},
		Action: runPatch,
	}
}

func runPatch(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	report := newProcessor(c, cfg).Run()
	printReport(c.App.Writer, report, cfg.Project.Root, c.Bool("dry-run"))

	if c.Bool("strict") {
		return rsperrors.NewMultiError(report.Errors()).ErrorOrNil()
	}
	return nil
}

func printReport(w io.Writer, report patch.Report, root string, dryRun bool) {
	verb := "patched"
	if dryRun {
		verb = "would patch"
	}
	for _, f := range report.Files {
		rel := pathutil.ToRelative(f.Path, root)
		switch {
		case f.Err != nil:
			fmt.Fprintf(w, "  failed   %s: %v\n", rel, f.Err)
		case f.Changed:
			fmt.Fprintf(w, "  %-8s %s\n", "changed", rel)
		default:
			fmt.Fprintf(w, "  %-8s %s\n", "ok", rel)
		}
	}
	fmt.Fprintf(w, "%s %d of %d files (%d failed)\n", verb, report.Changed(), len(report.Files), len(report.Errors()))
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Show the directives found in a response file",
		ArgsUsage: "[response-file]",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}
			path := cfg.ResolvePath(cfg.ResponseFiles.Shared)
			if c.NArg() > 0 {
				path = c.Args().First()
			}

			set, err := rsp.Load(fsys.NewOS(), path)
			if err != nil {
				return err
			}
			w := c.App.Writer
			if set.IsEmpty() {
				fmt.Fprintf(w, "%s: no directives\n", pathutil.ToRelative(path, cfg.Project.Root))
				return nil
			}
			fmt.Fprintf(w, "unsafe:     %v\n", set.HasUnsafe())
			fmt.Fprintf(w, "defines:    %s\n", strings.Join(set.Defines(), ", "))
			fmt.Fprintf(w, "references: %s\n", strings.Join(set.References(), ", "))
			return nil
		},
	}
}

func slnCommand() *cli.Command {
	return &cli.Command{
		Name:      "sln",
		Usage:     "Normalize solution files only",
		ArgsUsage: "[solution-file...]",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}
			proc := newProcessor(c, cfg)

			paths := c.Args().Slice()
			if len(paths) == 0 {
				_, paths, err = proc.Discover()
				if err != nil {
					return err
				}
			}
			for i, p := range paths {
				paths[i] = cfg.ResolvePath(p)
			}

			report := proc.ProcessFiles(paths)
			printReport(c.App.Writer, report, cfg.Project.Root, c.Bool("dry-run"))
			return nil
		},
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Show detected engine capabilities and the files that would be processed",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}
			fs := fsys.NewOS()
			caps, err := capability.NewHostProbe(fs, cfg.Project.Root, cfg.Host).Capabilities()
			if err != nil {
				return err
			}

			w := c.App.Writer
			fmt.Fprintf(w, "root:              %s\n", cfg.Project.Root)
			fmt.Fprintf(w, "engine version:    %s\n", caps.EngineVersion)
			fmt.Fprintf(w, "scripting runtime: %d\n", caps.ScriptingRuntime)
			fmt.Fprintf(w, "api compatibility: %d\n", caps.APICompatibilityLevel)
			fmt.Fprintf(w, "language version:  %s\n", caps.LanguageVersion)
			fmt.Fprintf(w, "editor:            %s\n", orNone(caps.EditorPath))
			fmt.Fprintf(w, "legacy rsp:        %v\n", caps.LegacyResponseFiles())

			projects, solutions, err := newProcessor(c, cfg).Discover()
			if err != nil {
				return err
			}
			for _, p := range pathutil.ToRelativeAll(projects, cfg.Project.Root) {
				fmt.Fprintf(w, "project:           %s\n", p)
			}
			for _, s := range pathutil.ToRelativeAll(solutions, cfg.Project.Root) {
				fmt.Fprintf(w, "solution:          %s\n", s)
			}
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Patch once, then re-patch whenever projects or response files change",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, c.App.Writer, cfg, newProcessor(c, cfg))
		},
	}
}

// runWatch performs the initial pass and watches until ctx ends.
func runWatch(ctx context.Context, w io.Writer, cfg *config.Config, proc *patch.Processor) error {
	watcher, err := watch.New(cfg, proc)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	report := proc.Run()
	printReport(w, report, cfg.Project.Root, false)
	watcher.Remember(report)

	g, gctx := errgroup.WithContext(ctx)

	// Reports are printed off the watch loop
	batches := make(chan patch.Report, 16)
	watcher.OnBatch(func(r patch.Report) {
		select {
		case batches <- r:
		case <-gctx.Done():
		}
	})

	g.Go(func() error {
		defer close(batches)
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		for r := range batches {
			printReport(w, r, cfg.Project.Root, false)
		}
		debug.LogWatch("report printer stopped\n")
		return nil
	})

	log.Printf("watching %s (Ctrl+C to stop)", cfg.Project.Root)
	if err := g.Wait(); err != nil {
		return err
	}

	stats := watcher.GetStats()
	log.Printf("stopped after %d batches, %d files patched", stats.Batches, stats.FilesPatched)
	return nil
}

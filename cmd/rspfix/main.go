package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/rspfix/internal/capability"
	"github.com/standardbeagle/rspfix/internal/config"
	"github.com/standardbeagle/rspfix/internal/debug"
	"github.com/standardbeagle/rspfix/internal/fsys"
	"github.com/standardbeagle/rspfix/internal/patch"
	"github.com/standardbeagle/rspfix/internal/version"
)

var Version = version.Version

// loadConfigWithOverrides loads configuration for --root, applies an
// explicit --config file and then CLI flag overrides.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config for %s: %w", root, err)
	}

	if configPath := c.String("config"); configPath != "" {
		var found bool
		if strings.EqualFold(filepath.Ext(configPath), ".toml") {
			found, err = config.ApplyTOMLFile(cfg, configPath)
		} else {
			found, err = config.ApplyKDLFile(cfg, configPath)
		}
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("config file %s not found", configPath)
		}
		if !filepath.IsAbs(cfg.Project.Root) {
			abs, err := filepath.Abs(cfg.Project.Root)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve root path %q: %w", cfg.Project.Root, err)
			}
			cfg.Project.Root = abs
		}
	}

	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Discovery.Exclude = config.DeduplicatePatterns(append(cfg.Discovery.Exclude, excludeFlags...))
	}
	if editor := c.String("editor"); editor != "" {
		cfg.Host.EditorPath = editor
	}
	if engine := c.String("engine-version"); engine != "" {
		cfg.Host.EngineVersion = engine
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newProcessor wires the production filesystem and host probe.
func newProcessor(c *cli.Context, cfg *config.Config) *patch.Processor {
	fs := fsys.NewOS()
	probe := capability.NewHostProbe(fs, cfg.Project.Root, cfg.Host)
	return patch.NewProcessor(fs, cfg, probe, patch.Options{DryRun: c.Bool("dry-run")})
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "rspfix",
		Usage:                  "Apply compiler response file settings to generated C# projects",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Additional config file applied after .rspfix.kdl (KDL, or TOML by extension)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Skip files matching glob patterns (e.g., --exclude 'Temp/**')",
			},
			&cli.StringFlag{
				Name:  "editor",
				Usage: "Editor installation directory (overrides config)",
			},
			&cli.StringFlag{
				Name:  "engine-version",
				Usage: "Engine version such as 2017.4.1f1 (overrides ProjectSettings/ProjectVersion.txt)",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Report what would change without writing",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress progress and warning output",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug tracing to stderr",
			},
			&cli.BoolFlag{
				Name:   "debug-log",
				Usage:  "Write debug tracing to a log file in the temp directory",
				Hidden: true,
			},
		},
		Commands: []*cli.Command{
			patchCommand(),
			extractCommand(),
			slnCommand(),
			probeCommand(),
			watchCommand(),
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, version.FullInfo())
					return nil
				},
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("quiet") {
				debug.SetQuietMode(true)
				log.SetOutput(io.Discard)
			}
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(c.App.ErrWriter)
			}
			if c.Bool("debug-log") {
				debug.EnableDebug = "true"
				path, err := debug.InitDebugLogFile("")
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.ErrWriter, "debug log: %s\n", path)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		// Invoked bare, as an editor hook, rspfix patches the project
		Action: runPatch,
	}
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("rspfix: ")

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

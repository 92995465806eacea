// Package cli implements the fourbar command-line interface.
//
// # Commands
//
//   - classify: Grashof classification of a linkage
//   - solve: one assembled position for an input angle
//   - sweep: full input-angle sweep with a per-branch summary
//   - render: SVG/PNG/PDF drawings of a position or a sweep
//   - explore: interactive terminal view of the linkage
//   - predict: joint angles from the learned estimator
//   - serve: HTTP API
//   - cache, completion: housekeeping
//
// Linkage lengths come from --lengths or from the [linkage] section of the
// file given with --config; flags win over the file.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fourbar/pkg/buildinfo"
	"github.com/matzehuels/fourbar/pkg/cache"
	"github.com/matzehuels/fourbar/pkg/config"
	"github.com/matzehuels/fourbar/pkg/pipeline"
)

const appName = "fourbar"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root command with every subcommand registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "fourbar solves and classifies planar four-bar linkages",
		Long: `fourbar classifies four-bar linkages by the Grashof criterion, solves their
loop-closure equations with Newton-Raphson for both assembly branches, and
sweeps the input crank through a full turn, reporting singular and
unreachable positions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.toml, .yaml)")
	_ = root.MarkPersistentFlagFilename("config", "toml", "yaml", "yml")

	root.AddCommand(c.classifyCommand())
	root.AddCommand(c.solveCommand())
	root.AddCommand(c.sweepCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.predictCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	if c.configPath == "" {
		c.cfg = &config.Config{}
		return nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded config", "path", c.configPath)
	c.cfg = cfg
	return nil
}

// config returns the loaded configuration, or an empty one before loading.
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		return &config.Config{}
	}
	return c.cfg
}

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, nil, c.Logger)
	r.TTL = c.config().Cache.TTL.Duration
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.config().Cache
	if noCache || cfg.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == config.BackendRedis {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rc, err := cache.NewRedisCache(ctx, cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
		}
		return rc, nil
	}

	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			c.Logger.Warn("caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using the XDG convention
// (~/.cache/fourbar/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

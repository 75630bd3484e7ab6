package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"castcut/internal/config"
	"castcut/internal/history"
	"castcut/internal/logging"
	"castcut/internal/pipeline"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	// pipelineOpts are appended to the defaults; tests inject fakes here.
	pipelineOpts []pipeline.Option
}

func newCommandContext(configFlag *string, verbose *bool, opts ...pipeline.Option) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		verbose:      verbose,
		pipelineOpts: opts,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			logger, _ = logging.NewFromConfig(nil)
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.Paths.WorkDir)
}

// withPipeline builds a pipeline bound to the run history and hands it to fn.
// Progress bars are drawn only when stderr is a terminal.
func (c *commandContext) withPipeline(cmd *cobra.Command, fn func(*pipeline.Pipeline) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger := c.loggerValue()
	opts := []pipeline.Option{pipeline.WithLogger(logger)}

	store, err := history.Open(cfg.Paths.WorkDir)
	if err != nil {
		logger.Warn("run history unavailable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "history_open_failed"),
			logging.String(logging.FieldImpact, "this run will not be recorded"),
		)
	} else {
		defer store.Close()
		opts = append(opts, pipeline.WithHistory(store))
	}
	if w := progressWriter(cmd.ErrOrStderr()); w != nil {
		opts = append(opts, pipeline.WithProgress(w))
	}
	opts = append(opts, c.pipelineOpts...)
	return fn(pipeline.New(cfg, opts...))
}

func progressWriter(w io.Writer) io.Writer {
	if shouldColorize(w) {
		return w
	}
	return nil
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/refinery/internal/config"
	"github.com/JonMunkholm/refinery/internal/core"
	"github.com/JonMunkholm/refinery/internal/engine"
	"github.com/JonMunkholm/refinery/internal/tabular"
)

type commandContext struct {
	envFileFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(envFileFlag *string) *commandContext {
	return &commandContext{envFileFlag: envFileFlag}
}

// ensureConfig loads the env file once, then the environment-driven config.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.envFileFlag != nil {
			path = strings.TrimSpace(*c.envFileFlag)
		}
		if path != "" {
			// Overload overwrites existing env vars
			if err := godotenv.Overload(path); err != nil {
				c.configErr = fmt.Errorf("load env file: %w", err)
				return
			}
		} else if err := godotenv.Overload(); err == nil {
			slog.Debug("loaded .env file (overwriting existing env vars)")
		}

		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// exportOptions converts the export section of cfg.
func exportOptions(cfg *config.Config) tabular.ExportOptions {
	return tabular.ExportOptions{
		SheetName:       cfg.Export.SheetName,
		WidthSampleRows: cfg.Export.WidthSampleRows,
		MaxColumnWidth:  cfg.Export.MaxColumnWidth,
	}
}

// newExecutor builds the executor selected by ENGINE_MODE.
func newExecutor(cfg *config.Config) engine.Executor {
	if cfg.Engine.Mode == config.EngineScript {
		return engine.NewScriptExecutor(
			engine.WithInterpreter(cfg.Engine.Interpreter),
			engine.WithProbeArgs(cfg.Engine.ProbeArgs...),
			engine.WithScriptDir(cfg.Engine.ScriptDir),
		)
	}
	return engine.NewLocalExecutor()
}

// newController wires a controller from cfg, with export overrides.
func newController(cfg *config.Config, exec engine.Executor, export tabular.ExportOptions) *core.Controller {
	return core.NewController(core.Options{
		Executor:        exec,
		NotificationTTL: cfg.Widget.NotificationTTL,
		PreviewRows:     cfg.Widget.PreviewRows,
		MaxFileSize:     cfg.Upload.MaxFileSize,
		Export:          export,
	})
}

type waiter interface {
	Wait(ctx context.Context) error
}

// startEngine bootstraps exec when it needs setup and waits until it is ready.
func startEngine(ctx context.Context, exec engine.Executor) error {
	b, ok := exec.(engine.Bootstrapper)
	if !ok {
		return nil
	}
	b.Bootstrap(ctx)
	if w, ok := exec.(waiter); ok {
		if err := w.Wait(ctx); err != nil {
			return fmt.Errorf("start engine: %w", err)
		}
	}
	return nil
}

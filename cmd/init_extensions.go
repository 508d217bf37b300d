/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// init_extensions.go handles extension initialisation and command registration.
//
// Separated from root.go to isolate the initialisation logic that loads
// config, builds the service and wires up extensions.
//
// Extensions register during init() but aren't initialised until first
// command execution. The service is created once and shared across all
// extensions via the Context.

package cmd

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/config"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/service"
)

// standaloneCommands lists commands that run without building the service.
// Built from the bootstrap commands plus extension-declared ones.
var standaloneCommands map[string]bool

func buildStandaloneCommands() map[string]bool {
	cmds := map[string]bool{
		"help":       true,
		"completion": true,
	}
	for _, ext := range extension.All() {
		if s, ok := ext.(extension.Standalone); ok {
			for _, name := range s.StandaloneCommands() {
				cmds[name] = true
			}
		}
	}
	return cmds
}

// Global extension context, created during initialisation.
var (
	extContext extension.Context
	extService *service.Service
	initOnce   sync.Once
	initErr    error
)

// initExtensions loads configuration, builds the service and injects it
// into extensions. sync.Once guarantees one service per process.
func initExtensions() error {
	initOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			initErr = err
			return
		}

		extService = service.New(cfg, service.WithLogger(slog.Default()))
		log.SetInstance(cfg.PocketBase.URL)

		extContext = extension.NewContext(extService, cfg)
		for _, ext := range extension.All() {
			if init, ok := ext.(extension.Initializable); ok {
				if err := init.Init(extContext); err != nil {
					initErr = fmt.Errorf("init extension %s: %w", ext.Name(), err)
					return
				}
			}
		}
	})
	return initErr
}

// LoadConfig loads configuration with environment overrides and applies the
// global --url and --debug flags on top.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if pbURL != "" {
		cfg.PocketBase.URL = pbURL
	}
	if debug {
		on := true
		cfg.Debug = &on
	}
	if cfg.IsDebug() && !debug {
		setupLogging(true)
	}
	return cfg, nil
}

var extensionsOnce sync.Once

// registerExtensions adds commands from all registered extensions.
// Called once before Execute runs.
func registerExtensions() {
	extensionsOnce.Do(func() {
		for _, ext := range extension.All() {
			for _, cmd := range ext.Commands() {
				rootCmd.AddCommand(cmd)
			}
		}
		standaloneCommands = buildStandaloneCommands()
	})
}

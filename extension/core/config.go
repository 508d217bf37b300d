// config.go implements the "pbmcp config" command.
//
// Config follows a cascade model similar to git: local config
// (.pbmcp/config.yaml) takes precedence over global (~/.pbmcp/config.yaml).
// The --local flag forces local config even if it doesn't exist yet.
//
// Reads show effective values (environment overrides applied). Writes go to
// the file alone, so a key exported in the shell is never persisted by
// accident. Secrets are masked in every output.

package core

import (
	"fmt"
	"os"
	"sort"

	"github.com/jpl-au/pbmcp/cmd"
	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/config"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config [key] [value]",
		Short: "View or set config values",
		Long: `View or set config values.

  pbmcp config                                  # show config
  pbmcp config pocketbase.url                   # show one value
  pbmcp config pocketbase.url http://127.0.0.1:8090

Configuration locations:
  Global: ~/.pbmcp/config.yaml
  Local:  .pbmcp/config.yaml

Uses local config if it exists, otherwise global.
Writes go to the same place reads come from.
Use --local to use local config instead.

Environment variables (POCKETBASE_URL, STRIPE_SECRET_KEY, ...) override
file values. See "pbmcp guide configuration".`,
		Args: cobra.MaximumNArgs(2),
		RunE: runConfig,
	}
	c.Flags().Bool(extension.FlagLocal, false, "Use local config (.pbmcp/config.yaml)")
	return c
}

func configScope(forceLocal bool) config.Scope {
	if forceLocal {
		return config.ScopeLocal
	}
	if _, err := os.Stat(config.LocalPath()); err == nil {
		return config.ScopeLocal
	}
	return config.ScopeGlobal
}

func scopeName(s config.Scope) string {
	if s == config.ScopeLocal {
		return "local"
	}
	return "global"
}

func display(key, v string) string {
	if config.IsSecret(key) {
		return config.Mask(v)
	}
	return v
}

func runConfig(c *cobra.Command, args []string) error {
	forceLocal, _ := c.Flags().GetBool(extension.FlagLocal)
	scope := configScope(forceLocal)

	switch len(args) {
	case 0:
		cfg, err := loadEffective(scope)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("config load: %w", err))
		}
		all := cfg.All()
		log.Event("core:config", "list").Write(nil)
		if cmd.JSON() {
			return cmd.PrintJSON(all)
		}
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.Out(), "%s: %s\n", k, all[k])
		}

	case 1:
		cfg, err := loadEffective(scope)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("config load: %w", err))
		}
		v, err := cfg.Get(args[0])
		log.Event("core:config", "get").Detail("key", args[0]).Write(err)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("config get %q: %w", args[0], err))
		}
		v = display(args[0], v)
		if cmd.JSON() {
			return cmd.PrintJSON(map[string]string{args[0]: v})
		}
		fmt.Fprintln(cmd.Out(), v)

	case 2:
		cfg, err := config.LoadScope(scope)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("config load: %w", err))
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			log.Event("core:config", "set").Detail("key", args[0]).Write(err)
			return cmd.PrintJSONError(fmt.Errorf("config set %q: %w", args[0], err))
		}

		saveErr := cfg.Save()
		// The value is never logged: most keys worth setting are credentials.
		log.Event("core:config", "set").Detail("key", args[0]).Detail("scope", scopeName(scope)).Write(saveErr)
		if saveErr != nil {
			return cmd.PrintJSONError(fmt.Errorf("config save: %w", saveErr))
		}
		if cmd.JSON() {
			return cmd.PrintJSON(map[string]string{"key": args[0], "value": display(args[0], args[1]), "scope": scopeName(scope)})
		}
		fmt.Fprintf(cmd.Out(), "%s = %s (%s)\n", args[0], display(args[0], args[1]), scopeName(scope))
	}
	return nil
}

// loadEffective loads scope and applies environment overrides.
func loadEffective(scope config.Scope) (*config.Config, error) {
	cfg, err := config.LoadScope(scope)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

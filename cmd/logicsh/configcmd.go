package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/waabox/logicsh/internal/config"
	"github.com/waabox/logicsh/internal/tui"
)

// configCmd implements "config show", "config path" and "config init".
func (a *app) configCmd(e *env, args []string) error {
	if len(args) == 0 {
		return &usageError{msg: "config: expected one of show, path, init"}
	}
	sub, rest := args[0], args[1:]
	fs := flag.NewFlagSet("config "+sub, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	force := false
	if sub == "init" {
		fs.BoolVar(&force, "force", false, "overwrite an existing config file")
	}
	if err := parseFlags(fs, rest); err != nil {
		return err
	}

	switch sub {
	case "show":
		if err := toml.NewEncoder(a.stdout).Encode(e.cfg); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		return nil
	case "path":
		fmt.Fprintln(a.stdout, e.configPath)
		fmt.Fprintln(a.stdout, e.cfg.TokenPath(e.configPath))
		return nil
	case "init":
		if _, err := os.Stat(e.configPath); err == nil && !force {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", e.configPath)
		}
		if err := config.Save(e.configPath, config.Default()); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Fprintln(a.stderr, tui.Success("Wrote "+e.configPath))
		return nil
	default:
		return &usageError{msg: fmt.Sprintf("config: unknown subcommand %q", sub)}
	}
}

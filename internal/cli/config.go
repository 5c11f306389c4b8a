// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/morganforge/tutor/internal/config"
)

const configUsage = "tutor config [show|path|init [--force]|get <key>|set <key> <value>|keys]"

// HandleConfig handles the "config" command. cfg is the effective
// configuration; path is the config file location.
func HandleConfig(w io.Writer, cfg *config.Config, path string, args Args) error {
	p := NewArgParser(args.Raw, "force")

	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return NewJSONResponse("config show", cfg).Write(w)
		}
		fmt.Fprintln(w, TitleStyle.Render("Configuration"))
		fmt.Fprintln(w, DimStyle.Render(path))
		fmt.Fprintln(w)
		fmt.Fprint(w, cfg.String())
		return nil

	case "path":
		fmt.Fprintln(w, path)
		return nil

	case "init":
		if _, err := os.Stat(path); err == nil && !p.BoolFlag("force") {
			return &UsageError{Message: fmt.Sprintf("%s already exists", path), Usage: "tutor config init --force"}
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return NewCommandError("config", "init", err)
		}
		fmt.Fprintln(w, SuccessLine("Wrote "+path))
		return nil

	case "get":
		if args.ConfigKey == "" {
			return ErrMissingArgument("key", "tutor config get <key>")
		}
		v, err := cfg.Get(args.ConfigKey)
		if err != nil {
			return &UsageError{Message: err.Error(), Usage: "tutor config keys"}
		}
		if args.JSON {
			return NewJSONResponse("config get", map[string]interface{}{args.ConfigKey: v}).Write(w)
		}
		fmt.Fprintln(w, v)
		return nil

	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return ErrMissingArgument("key and value", "tutor config set <key> <value>")
		}
		// Edit the file contents, not the env-overridden effective config.
		fileCfg := config.Default()
		if _, err := os.Stat(path); err == nil {
			if err := config.LoadTOML(fileCfg, path); err != nil {
				return NewCommandError("config", "read", err)
			}
		}
		if err := fileCfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
			return &UsageError{Message: err.Error(), Usage: "tutor config set <key> <value>"}
		}
		fileCfg.SetDefaults()
		if err := fileCfg.Validate(); err != nil {
			return err
		}
		if err := config.SaveTOML(fileCfg, path); err != nil {
			return NewCommandError("config", "save", err)
		}
		fmt.Fprintln(w, SuccessLine(fmt.Sprintf("%s = %s", args.ConfigKey, args.ConfigVal)))
		return nil

	case "keys":
		for _, k := range config.GetAllKeys() {
			fmt.Fprintln(w, k)
		}
		return nil

	default:
		return ErrUnknownSubcommand("config", args.Subcommand, configUsage)
	}
}

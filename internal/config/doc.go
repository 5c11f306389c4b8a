// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tutor.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (TUTOR_*), including a .env file in the
//     working directory
//   - ~/.tutor/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := gateway.New(cfg.Server.URL, gateway.WithTimeout(cfg.Server.Timeout()))
//
// Individual settings can be read and written with dot notation, which is
// what "tutor config get|set" uses:
//
//	v, _ := cfg.Get("server.url")
//	_ = cfg.Set("chat.use_ai", "false")
package config

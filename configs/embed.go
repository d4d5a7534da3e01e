// Package configs embeds the configuration template written by
// `tanach config init` at ~/.config/tanach/config.yaml.
//
// Configuration hierarchy (see internal/config Load):
//  1. Hardcoded defaults
//  2. User config (~/.config/tanach/config.yaml)
//  3. Project config (.tanach.yaml)
//  4. Environment variables (TANACH_*)
package configs

import _ "embed"

// UserConfigTemplate is the commented user configuration, set to the
// hardcoded defaults.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

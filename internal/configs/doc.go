// Package configs manages sops-pilot settings.
//
// User settings live in a TOML file under the OS config directory
// (~/.config/sops-pilot/config.toml on Linux) and cover the sops binary,
// the working-copy suffix, the cleanup debounce window, and an editor
// override. Project settings are derived at runtime by locating the
// directory that holds .sops.yaml.
package configs

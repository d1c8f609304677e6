// Package config loads and merges lamp configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (LAMP_MODEL, LAMP_MAX_FILE_BYTES, OPENROUTER_API_KEY, etc.),
//     optionally seeded from a .env file via [LoadEnvFile]
//  3. Config file ($XDG_CONFIG_HOME/lamp/config.yaml)
//  4. Built-in defaults
//
// Byte sizes accept plain integers or human-readable strings such as
// "50 MiB". The API key is read from the environment only and is never
// written to the config file.
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key.
package config

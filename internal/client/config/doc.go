// Package config loads CLI settings from defaults, the environment, an
// optional JSON file, and command-line flags, in that order of precedence
// (lowest to highest).
package config

// Package config provides configuration structures and utilities for torwatch.
// It defines the monitor's settings (proxy endpoint, poll interval, target
// list, store path, redirect policy) and merges them from defaults, an
// optional YAML file, environment variables, and CLI flags, in that order.
package config

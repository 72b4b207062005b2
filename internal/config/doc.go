// Package config loads the viewer configuration from JSON or YAML files.
//
// The canonical defaults live in config/viewer.defaults.json at the
// repository root. Fields omitted from a file fall back to the same values
// through the Get* accessors, so partial configs are safe.
package config

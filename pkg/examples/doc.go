// Package examples provides ready-made configuration groups for common
// embedded subsystems. They demonstrate how to declare persistent settings
// with explicit field lists and register them with a conf.Config, and they
// back the bundled console and server binaries.
package examples

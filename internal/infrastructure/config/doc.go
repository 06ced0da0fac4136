// Package config handles loading and validating the desktop shell configuration.
//
// This package manages:
//   - Loading an optional YAML configuration file
//   - Overriding with TASKRIOT_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// The shell is expected to run with no configuration file at all: the
// defaults describe the packaged desktop build. A file or environment
// variables are only needed to relocate the resource or data directories,
// for example when running a build out of a scratch directory.
//
// Usage:
//
//	cfg, err := config.Load(os.Getenv("TASKRIOT_CONFIG"))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.App.Identifier)
package config

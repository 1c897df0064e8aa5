// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package fsboxyaml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"
)

// Load parses b and fills unspecified fields with the default values.
// filename is only used in error messages.
//
// Load does not validate. Use Validate for validation.
func Load(b []byte, filename string) (*Config, error) {
	var c Config
	if len(b) > 0 {
		if err := yaml.UnmarshalWithOptions(b, &c, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", filename, err)
		}
	}
	FillDefault(&c)
	return &c, nil
}

// ConfigFile returns the default location of the configuration file.
func ConfigFile() (string, error) {
	if dir := os.Getenv("FSBOX_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "fsbox.yaml"), nil
	}
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "fsbox", "fsbox.yaml"), nil
}

// LoadFile reads the configuration from path.
// When path is empty the default location is used, and a missing file yields
// the default configuration.
func LoadFile(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = ConfigFile(); err != nil {
			return nil, err
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			logrus.WithField("path", path).Debug("No configuration file, using defaults")
			return Load(nil, path)
		}
		return nil, err
	}
	logrus.WithField("path", path).Debug("Loaded configuration file")
	return Load(b, path)
}

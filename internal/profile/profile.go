// Package profile loads named schema-extraction configs from disk.
//
// A profile is a JSON or YAML file materializing schemadiff.Config.
// Unknown fields are rejected so a typo in a profile surfaces as an
// error instead of silently extracting with defaults. Fields a profile
// leaves out fall back to the built-in defaults at extraction time.
package profile

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xmldelta/xmldelta/core/errors"
	"github.com/xmldelta/xmldelta/core/schemadiff"
)

// Load reads one profile file. The format follows the extension:
// .json, .yaml, or .yml.
func Load(path string) (schemadiff.Config, error) {
	var cfg schemadiff.Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.NewNotFound("profile", path)
		}
		return cfg, errors.NewIO("read", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(path, data)
	case ".yaml", ".yml":
		return parseYAML(path, data)
	default:
		return cfg, errors.NewUnsupported("profile format", filepath.Ext(path))
	}
}

func parseJSON(path string, data []byte) (schemadiff.Config, error) {
	var cfg schemadiff.Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return schemadiff.Config{}, errors.NewParse("profile", path, err.Error())
	}
	return cfg, nil
}

func parseYAML(path string, data []byte) (schemadiff.Config, error) {
	var cfg schemadiff.Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// An empty profile means all defaults.
		if err == io.EOF {
			return cfg, nil
		}
		return schemadiff.Config{}, errors.NewParse("profile", path, err.Error())
	}
	return cfg, nil
}

// Package config reads the optional YAML configuration files
// accepted by the remotetemp commands. Values from a configuration
// file act as defaults: flags given explicitly on the command line
// take precedence.
package config

import (
	"io/ioutil"

	errgo "gopkg.in/errgo.v1"
	yaml "gopkg.in/yaml.v2"
)

// Common holds the settings shared by the client and server commands.
type Common struct {
	Daemonize bool   `yaml:"daemonize"`
	PIDFile   string `yaml:"pid-file"`
	LogFile   string `yaml:"log-file"`
	LogLevel  string `yaml:"log-level"`
}

// Client holds the remotetemp-client settings.
type Client struct {
	Common `yaml:",inline"`

	Server    string `yaml:"server"`
	DeviceID  string `yaml:"device-id"`
	SensorDir string `yaml:"sensor-dir"`
	// Period holds the time between sensor reads in seconds.
	Period          float64  `yaml:"period"`
	SanityCheckLow  *float64 `yaml:"sanity-check-low"`
	SanityCheckHigh *float64 `yaml:"sanity-check-high"`
}

// Server holds the remotetemp-server settings.
type Server struct {
	Common `yaml:",inline"`

	Address         string   `yaml:"address"`
	Port            int      `yaml:"port"`
	Database        string   `yaml:"database"`
	Store           string   `yaml:"store"`
	SanityCheckLow  *float64 `yaml:"sanity-check-low"`
	SanityCheckHigh *float64 `yaml:"sanity-check-high"`
}

// Load reads the YAML file at path into dst, which should be a
// pointer to Client or Server. Unknown fields are an error so that
// a typo in a config file doesn't silently lose a setting.
func Load(path string, dst interface{}) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errgo.Notef(err, "cannot read configuration file")
	}
	if err := yaml.UnmarshalStrict(data, dst); err != nil {
		return errgo.Notef(err, "cannot parse configuration file %q", path)
	}
	return nil
}

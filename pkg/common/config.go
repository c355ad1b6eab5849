package common

import (
	"fmt"
	"io/ioutil"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// ServerConfig defines the configuration settings for the icehouse server.
type ServerConfig struct {
	Address  string `yaml:"address"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	// StatePath is the file the engine state snapshot is saved to and
	// restored from. Empty disables snapshot persistence.
	StatePath string `yaml:"statePath"`
}

// NewDefaultServerConfig returns a new default server configuration.
func NewDefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:  "127.0.0.1",
		Port:     "7654",
		LogLevel: "info",
	}
}

// Validate validates a ServerConfig and returns an error if it's invalid.
func (conf *ServerConfig) Validate() error {
	if conf.Address == "" {
		return fmt.Errorf("invalid address provided in config")
	}
	if conf.Port == "" {
		return fmt.Errorf("invalid port provided in config")
	}
	if _, err := log.ParseLevel(conf.LogLevel); err != nil {
		return fmt.Errorf("invalid log level provided in config: %v", err)
	}
	return nil
}

// LoadFromFile loads the config from the file. It assumes that config already has the defaults.
// In the case of an error, it leaves the config untouched.
func (conf *ServerConfig) LoadFromFile(path string) {
	log.Info(fmt.Sprintf("common::config::LoadFromFile; loading config from file %s", path))
	data, err := ioutil.ReadFile(path)
	if err != nil {
		log.Error(fmt.Sprintf("common::config::LoadFromFile; error reading config from file %s, error %s", path, err))
		return
	}
	fconf := ServerConfig{}
	err = yaml.Unmarshal(data, &fconf)
	if err != nil {
		log.Error(fmt.Sprintf("common::config::LoadFromFile; error unmarshalling config from file %s, error %s", path, err))
		return
	}

	log.WithFields(log.Fields{"config": fconf}).Debug("common::config::LoadFromFile; read contents from the file")

	// populate fields
	if fconf.Address != "" {
		conf.Address = fconf.Address
	}
	if fconf.Port != "" {
		conf.Port = fconf.Port
	}
	if fconf.LogLevel != "" {
		conf.LogLevel = fconf.LogLevel
	}
	if fconf.StatePath != "" {
		conf.StatePath = fconf.StatePath
	}
}

// ListenAddr returns the address:port pair the server binds to.
func (conf *ServerConfig) ListenAddr() string {
	return conf.Address + ":" + conf.Port
}

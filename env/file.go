//
// file.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package env

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// File defines the party configuration file.
type File struct {
	// Party is the local party ID, 0 or 1.
	Party int `yaml:"party"`

	// Listen is the listen address of the party 0.
	Listen string `yaml:"listen"`

	// Peer is the address of the party 0 where the party 1 connects
	// to.
	Peer string `yaml:"peer"`

	Verbose  bool   `yaml:"verbose"`
	LogLevel string `yaml:"log_level"`

	PSIScheme string `yaml:"psi_scheme"`
	PJCScheme string `yaml:"pjc_scheme"`
}

// DefaultFile returns the default configuration.
func DefaultFile() *File {
	return &File{
		Listen:    ":8080",
		Peer:      "localhost:8080",
		LogLevel:  "info",
		PSIScheme: "ecdh",
		PJCScheme: "ecdh",
	}
}

// LoadFile loads the configuration file. The fields missing from the
// file keep their default values.
func LoadFile(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseFile(f)
}

// ParseFile parses the configuration from the reader.
func ParseFile(r io.Reader) (*File, error) {
	file := DefaultFile()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(file); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if file.Party != 0 && file.Party != 1 {
		return nil, errors.Errorf("invalid party %d", file.Party)
	}
	if _, err := logrus.ParseLevel(file.LogLevel); err != nil {
		return nil, errors.Wrap(err, "invalid log_level")
	}
	return file, nil
}

// Config creates the system configuration from the file.
func (file *File) Config() *Config {
	log := logrus.New()
	level, err := logrus.ParseLevel(file.LogLevel)
	if err == nil {
		log.SetLevel(level)
	}
	return &Config{
		Logger:  log,
		Verbose: file.Verbose,
	}
}

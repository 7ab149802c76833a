//
// params.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package params implements the structured parameter bundles passed
// to the cryptographic engines. A bundle maps section names to
// key-value pairs, for example common.is_sender or
// kkrt_psi_params.epsilon.
package params

import (
	"fmt"
	"sort"
	"strings"

	"github.com/markkurossi/duet"
	"github.com/pkg/errors"
)

// Common parameter keys.
const (
	Common   = "common"
	IsSender = "is_sender"
	Verbose  = "verbose"
)

// Section contains the parameters of one section.
type Section map[string]interface{}

// Params contains the parameter sections.
type Params map[string]Section

// New creates an empty parameter bundle.
func New() Params {
	return make(Params)
}

// Set sets the parameter value.
func (p Params) Set(section, key string, value interface{}) Params {
	s, ok := p[section]
	if !ok {
		s = make(Section)
		p[section] = s
	}
	s[key] = value
	return p
}

// Get returns the parameter value.
func (p Params) Get(section, key string) (interface{}, bool) {
	s, ok := p[section]
	if !ok {
		return nil, false
	}
	v, ok := s[key]
	return v, ok
}

func (p Params) missing(section, key string) error {
	return errors.Wrapf(duet.ErrInvalidArgument, "missing parameter %s.%s",
		section, key)
}

func (p Params) invalid(section, key string, v interface{}) error {
	return errors.Wrapf(duet.ErrInvalidArgument,
		"invalid parameter %s.%s: %v(%T)", section, key, v, v)
}

// Bool returns the boolean parameter value.
func (p Params) Bool(section, key string) (bool, error) {
	v, ok := p.Get(section, key)
	if !ok {
		return false, p.missing(section, key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, p.invalid(section, key, v)
	}
	return b, nil
}

// Float returns the floating point parameter value.
func (p Params) Float(section, key string) (float64, error) {
	v, ok := p.Get(section, key)
	if !ok {
		return 0, p.missing(section, key)
	}
	switch f := v.(type) {
	case float64:
		return f, nil
	case int:
		return float64(f), nil
	default:
		return 0, p.invalid(section, key, v)
	}
}

// Int returns the integer parameter value.
func (p Params) Int(section, key string) (int, error) {
	v, ok := p.Get(section, key)
	if !ok {
		return 0, p.missing(section, key)
	}
	i, ok := v.(int)
	if !ok {
		return 0, p.invalid(section, key, v)
	}
	return i, nil
}

// Keys returns the parameter names as sorted section.key strings.
func (p Params) Keys() []string {
	var result []string
	for section, s := range p {
		for key := range s {
			result = append(result, section+"."+key)
		}
	}
	sort.Strings(result)
	return result
}

func (p Params) String() string {
	var sb strings.Builder
	for idx, k := range p.Keys() {
		if idx > 0 {
			sb.WriteString(", ")
		}
		parts := strings.SplitN(k, ".", 2)
		v, _ := p.Get(parts[0], parts[1])
		fmt.Fprintf(&sb, "%s=%v", k, v)
	}
	return sb.String()
}

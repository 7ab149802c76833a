//
// setops.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package setops implements the two-party set operations: private set
// intersection (PSI) and private join and compute (PJC). The package
// negotiates the protocol roles, builds the engine parameters, and
// runs the engine of the selected scheme.
package setops

import (
	"os"

	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/ecdhpsi"
	"github.com/markkurossi/duet/env"
	"github.com/markkurossi/duet/kkrt"
	"github.com/markkurossi/duet/matrix"
	"github.com/markkurossi/duet/p2p"
	"github.com/markkurossi/duet/params"
	"github.com/markkurossi/text/superscript"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func checkParty(party int) error {
	if party < 0 || party > 1 {
		return errors.Wrapf(duet.ErrInvalidArgument,
			"party ID %d not in [0, 2)", party)
	}
	return nil
}

func logger(config *env.Config, party int, op, scheme string) logrus.FieldLogger {
	return config.GetLogger().WithFields(logrus.Fields{
		"party":  "P" + superscript.Itoa(party),
		"op":     op,
		"scheme": scheme,
	})
}

// progress logs the message at the Info level in the verbose mode and
// at the Debug level otherwise.
func progress(log logrus.FieldLogger, verbose bool, format string,
	args ...interface{}) {
	if verbose {
		log.Infof(format, args...)
	} else {
		log.Debugf(format, args...)
	}
}

// PSIParams builds the engine parameters for the PSI scheme. The KKRT
// scheme negotiates the roles with the peer.
func PSIParams(conn *p2p.Conn, party int, obtain, verbose bool,
	scheme PSIScheme) (params.Params, error) {

	p := params.New().Set(params.Common, params.Verbose, verbose)

	switch scheme {
	case PSIECDH:
		p.Set(params.Common, params.IsSender, StaticRole(party).IsSender).
			Set(ecdhpsi.Section, ecdhpsi.ObtainResult, obtain)

	case PSIKKRT:
		role, err := NegotiateRole(conn, party, obtain)
		if err != nil {
			return nil, err
		}
		p.Set(params.Common, params.IsSender, role.IsSender).
			Set(kkrt.Section, kkrt.Epsilon, KKRTEpsilon).
			Set(kkrt.Section, kkrt.FunNum, KKRTFunNum).
			Set(kkrt.Section, kkrt.SenderObtainResult,
				role.SenderObtainResult())

	default:
		return nil, errors.Wrapf(duet.ErrUnsupportedScheme, "PSI %s", scheme)
	}
	return p, nil
}

// PSI computes the private set intersection of the input with the
// peer's input. The function returns the intersection if the party
// obtains the result, and an empty set otherwise. Both parties must
// call PSI with the same scheme. An unsupported scheme fails with
// duet.ErrUnsupportedScheme before any network I/O. Errors from the
// engine and the connection are returned unchanged.
func PSI(conn *p2p.Conn, input []string, party int, obtain, verbose bool,
	scheme PSIScheme, config *env.Config) ([]string, error) {

	engine, err := NewPSIEngine(scheme, config)
	if err != nil {
		return nil, err
	}
	if err := checkParty(party); err != nil {
		return nil, err
	}
	verbose = verbose || config.IsVerbose()
	log := logger(config, party, "psi", scheme.String())
	timing := NewTiming()
	start := conn.Stats.Snapshot()

	p, err := PSIParams(conn, party, obtain, verbose, scheme)
	if err != nil {
		return nil, err
	}
	progress(log, verbose, "params: %s", p)
	timing.Sample("Params", []string{
		FileSize(conn.Stats.Sub(start).Sum()).String(),
	})

	if err := engine.Init(conn, p); err != nil {
		return nil, err
	}
	timing.Sample("Init", []string{
		FileSize(conn.Stats.Sub(start).Sum()).String(),
	})

	result, err := engine.Process(conn, input)
	if err != nil {
		return nil, err
	}
	timing.Sample("Process", []string{
		FileSize(conn.Stats.Sub(start).Sum()).String(),
	})
	progress(log, verbose, "intersection: %d of %d values",
		len(result), len(input))
	if verbose {
		timing.Print(os.Stdout, conn.Stats.Sub(start))
	}
	return result, nil
}

// PJCParams creates the engine parameters for the PJC scheme. The
// ECDH join has no tunables; its bundle only carries the common
// role and verbosity.
func PJCParams(party int, verbose bool) params.Params {
	return params.New().
		Set(params.Common, params.Verbose, verbose).
		Set(params.Common, params.IsSender, StaticRole(party).IsSender)
}

// PJC joins the keys with the peer's keys and returns the additive
// shares of the joined features. The features hold the feature
// columns: features[f][i] is the feature f of key i. The result has
// one row per matched key; the columns are the party 0 features
// followed by the party 1 features. The feature values stay secret
// but both parties learn which of their own keys are in the
// intersection. An unsupported scheme fails with
// duet.ErrUnsupportedScheme before any network I/O.
func PJC(conn *p2p.Conn, keys []string, features [][]uint64, party int,
	verbose bool, scheme PJCScheme, config *env.Config) (
	*matrix.Matrix[int64], error) {

	engine, err := NewPJCEngine(scheme, config)
	if err != nil {
		return nil, err
	}
	if err := checkParty(party); err != nil {
		return nil, err
	}
	verbose = verbose || config.IsVerbose()
	log := logger(config, party, "pjc", scheme.String())
	timing := NewTiming()
	start := conn.Stats.Snapshot()

	p := PJCParams(party, verbose)
	progress(log, verbose, "params: %s", p)

	if err := engine.Init(conn, p); err != nil {
		return nil, err
	}
	timing.Sample("Init", []string{
		FileSize(conn.Stats.Sub(start).Sum()).String(),
	})

	result, err := engine.Process(conn, keys, features)
	if err != nil {
		return nil, err
	}
	timing.Sample("Process", []string{
		FileSize(conn.Stats.Sub(start).Sum()).String(),
	})
	progress(log, verbose, "joined: %d rows of %d keys",
		result.Rows, len(keys))
	if verbose {
		timing.Print(os.Stdout, conn.Stats.Sub(start))
	}
	return result, nil
}

// Package errors provides error handling for taxon.
//
// This package re-exports github.com/cockroachdb/errors so that the rest of
// the module gets stack traces, wrapping, hints and marks from one import:
//
//	// Wrap with context
//	if err := fetcher.Fetch(ctx, src); err != nil {
//	    return errors.Wrapf(err, "load %s", key)
//	}
//
//	// Tell the user what to change
//	return errors.WithHint(err, "add [vocabularies.IPSV] to taxon.toml")
//
//	// Classify without losing the original message
//	return errors.Mark(parseErr, vocab.ErrMalformed)
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Classification
var (
	// Mark makes errors.Is(err, reference) true while keeping err's message
	// and chain intact. Loader failures use it to attach the load taxonomy
	// (malformed, not recognized, ...) to the underlying parser error.
	Mark = crdb.Mark

	// CombineErrors joins two errors, keeping the first as primary.
	CombineErrors = crdb.CombineErrors
)

// AssertionFailedf reports a violated internal invariant.
var AssertionFailedf = crdb.AssertionFailedf

// Hints returns all user hints attached anywhere in err's chain, joined by
// newlines. Returns "" for a nil error.
func Hints(err error) string {
	if err == nil {
		return ""
	}
	return FlattenHints(err)
}

// SPDX-License-Identifier: EPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// The package consolidates the 3-step CUE parsing pattern used by the
// manifest and config packages:
//
//  1. Compile the embedded schema
//  2. Compile the user document and unify with the schema
//  3. Validate and decode to a Go value
//
// JSON documents compile directly, since JSON is a subset of CUE.
package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize bounds parsed document size. Documents are fully read
// into memory, so the limit caps memory use on hostile or broken inputs.
const DefaultMaxFileSize int64 = 1 << 20 // 1 MiB

type options struct {
	filename    string
	maxFileSize int64
	concrete    bool
}

// Option configures a parse operation.
type Option func(*options)

// WithFilename sets the document name used in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithMaxFileSize overrides the document size limit.
func WithMaxFileSize(n int64) Option {
	return func(o *options) { o.maxFileSize = n }
}

// WithConcrete requires every field to be concrete after unification. Use
// this for documents; leave it off for partial configs.
func WithConcrete() Option {
	return func(o *options) { o.concrete = true }
}

func defaultOptions() options {
	return options{maxFileSize: DefaultMaxFileSize}
}

// ParseResult contains the result of a successful parse operation.
type ParseResult[T any] struct {
	// Value is the decoded Go value.
	Value *T

	// Unified is the unified CUE value, available for callers that need to
	// extract additional metadata.
	Unified cue.Value
}

// ParseAndDecodeString compiles the schema, unifies the user document with
// the definition at schemaPath (e.g. "#Manifest"), validates, and decodes
// into T. Errors carry the document name and the CUE path of the failing
// field.
func ParseAndDecodeString[T any](schema string, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	filename := o.filename
	if filename == "" {
		filename = "<input>"
	}

	if err := CheckFileSize(data, o.maxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	unified := schemaRoot.Unify(userValue)
	if o.concrete {
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			return nil, FormatError(err, filename)
		}
	} else {
		if err := unified.Validate(); err != nil {
			return nil, FormatError(err, filename)
		}
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &ParseResult[T]{Value: &result, Unified: unified}, nil
}

// CheckFileSize verifies that data does not exceed the specified maximum
// size. Exposed for callers that check before parsing.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}

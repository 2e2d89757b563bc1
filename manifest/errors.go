// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyLine is returned by ParseLine for a line with no tokens. Document
	// parsing treats it as a skipped line, never as a failure.
	ErrEmptyLine = errors.New("manifest: empty line")
	// ErrExpectedSOA means the third line of a document is not an SOA record.
	ErrExpectedSOA = errors.New("manifest: expected SOA record")
	// ErrConflict means the manifest on disk changed since it was read.
	ErrConflict = errors.New("manifest: serial conflict")
	// ErrBuilderFinalized is reported by a Builder used after Build without Reset.
	ErrBuilderFinalized = errors.New("manifest: builder already finalized")
)

// ArityError reports a record line whose token count does not fit its type.
type ArityError struct {
	Expected int
	Got      int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("manifest: record should have %d fields, received: %d", e.Expected, e.Got)
}

// UnknownTypeError reports a record type outside A, NS and SOA.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("manifest: record type should be `A`, `NS` or `SOA`, received: `%s`", e.Type)
}

// NumberError reports a mandatory numeric field that is not an unsigned 32-bit integer.
type NumberError struct {
	Field string
	Value string
	Err   error
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("manifest: %s should be an unsigned 32-bit integer, received: %q", e.Field, e.Value)
}

func (e *NumberError) Unwrap() error { return e.Err }

// DocumentError aborts whole-document parsing. Line is zero-based.
type DocumentError struct {
	Line int
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("manifest: line %d: %v", e.Line+1, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// ConflictError is returned by Store.Save when the on-disk serial is not the expected one.
type ConflictError struct {
	Expected uint32
	Actual   uint32
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("manifest: serial conflict: expected %d, found %d on disk", e.Expected, e.Actual)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// StorageError wraps a read or write failure on the manifest path.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("manifest: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

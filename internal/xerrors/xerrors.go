// Package xerrors attaches call-site information to errors so the logger can
// report where a failure was created or wrapped.
//
// Two shapes exist:
//   - stacked errors (New, Newf, WithStack, EnsureTrace) carry a full call stack
//   - wrapped errors (Wrap, Wrapf) carry the single PC of the wrapping call
//
// Both unwrap normally, so errors.Is / errors.As keep working across them.
package xerrors

import (
	"errors"
	"fmt"
	"runtime"
)

const maxStackDepth = 64

type stacked struct {
	err error
	pcs []uintptr
}

func (s *stacked) Error() string       { return s.err.Error() }
func (s *stacked) Unwrap() error       { return s.err }
func (s *stacked) StackPCs() []uintptr { return s.pcs }
func (s *stacked) IsXerrorsWrapper()   {}

type annotated struct {
	cause error
	msg   string
	pc    uintptr
}

func (a *annotated) Error() string     { return a.msg + ": " + a.cause.Error() }
func (a *annotated) Unwrap() error     { return a.cause }
func (a *annotated) PC() uintptr       { return a.pc }
func (a *annotated) IsXerrorsWrapper() {}

// skip counts frames above runtime.Callers
func callers(skip int) []uintptr {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip+1, pcs)
	return pcs[:n]
}

func caller(skip int) uintptr {
	var pcs [1]uintptr
	if runtime.Callers(skip+1, pcs[:]) == 0 {
		return 0
	}
	return pcs[0]
}

func stack(err error) error {
	if err == nil {
		return nil
	}
	// runtime.Callers, callers, stack, exported entrypoint
	return &stacked{err: err, pcs: callers(3)}
}

// New returns an error with msg and the caller's stack.
func New(msg string) error { return stack(errors.New(msg)) }

// Newf formats like fmt.Errorf (including %w) and records the caller's stack.
func Newf(format string, args ...any) error { return stack(fmt.Errorf(format, args...)) }

// WithStack records the caller's stack on err. Nil stays nil.
func WithStack(err error) error { return stack(err) }

// EnsureTrace records a stack only when none exists anywhere in the chain.
func EnsureTrace(err error) error {
	if err == nil {
		return nil
	}
	var hs interface{ StackPCs() []uintptr }
	if errors.As(err, &hs) && len(hs.StackPCs()) > 0 {
		return err
	}
	return stack(err)
}

// Wrap prefixes err with msg and records the wrapping call site. Nil stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, msg: msg, pc: caller(2)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, msg: fmt.Sprintf(format, args...), pc: caller(2)}
}

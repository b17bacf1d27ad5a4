package log

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Errors that stop the command line tools. Each carries a stable code.
var (
	ErrMalformedConfig = newFatalErrorWithReason("ERR_MALFORMED_CONFIG", "config file is malformed")
	ErrBadFlags        = newFatalErrorWithReason("ERR_BAD_FLAGS", "bad CLI flags")
	ErrInvalidConfig   = newFatalErrorWithReason("ERR_INVALID_CONFIG", "invalid configuration")
	ErrWriteReport     = newFatalErrorWithArgs("ERR_WRITE_REPORT", "could not write report to %v: %v")
)

type FatalError struct {
	Code   string
	Text   string
	Args   []any
	Reason error
}

func newFatalErrorWithArgs(code, text string) func(args ...any) *FatalError {
	return func(args ...any) *FatalError {
		return &FatalError{
			Code: code,
			Text: text,
			Args: args,
		}
	}
}

func newFatalErrorWithReason(code, text string) func(reason error) *FatalError {
	return func(reason error) *FatalError {
		return &FatalError{
			Code:   code,
			Text:   text,
			Reason: reason,
		}
	}
}

func (fe *FatalError) Error() string {
	if fe.Reason != nil {
		return fmt.Sprintf("%v: %v", fe.Text, fe.Reason)
	}
	if len(fe.Args) != 0 {
		return fmt.Sprintf(fe.Text, fe.Args...)
	}
	return fe.Text
}

func (fe *FatalError) Unwrap() error {
	return fe.Reason
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (fe *FatalError) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("code", fe.Code)
	encoder.AddString("error", fe.Error())
	return encoder.AddArray("args", arrayMarshaler(fe.Args))
}

type arrayMarshaler []any

func (args arrayMarshaler) MarshalLogArray(encoder zapcore.ArrayEncoder) error {
	for _, arg := range args {
		if err := encoder.AppendReflected(arg); err != nil {
			return err
		}
	}
	return nil
}

package emulator

import (
	"errors"
	"strconv"

	"github.com/ezrec/uvm/cpu"
	"github.com/ezrec/uvm/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
// LineNo is 0 when the program has no source listing.
type ErrRuntime struct {
	Ip     int
	LineNo int
	Err    error
}

// located returns true if the wrapped error already reports the offset.
func (err *ErrRuntime) located() bool {
	var decode cpu.ErrDecode
	var fault cpu.ErrFault
	return errors.As(err.Err, &decode) || errors.As(err.Err, &fault)
}

func (err *ErrRuntime) Error() string {
	ip := strconv.Itoa(err.Ip)
	lineno := strconv.Itoa(err.LineNo)

	switch {
	case err.LineNo == 0 && err.located():
		return err.Err.Error()
	case err.LineNo == 0:
		return f("offset %v %v", ip, err.Err)
	case err.located():
		return f("line %v %v", lineno, err.Err)
	default:
		return f("line %v offset %v %v", lineno, ip, err.Err)
	}
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrBatch identifies the program image of a batch that failed.
type ErrBatch struct {
	Index int
	Err   error
}

func (err *ErrBatch) Error() string {
	return f("image %v: %v", strconv.Itoa(err.Index), err.Err)
}

func (err *ErrBatch) Unwrap() error {
	return err.Err
}

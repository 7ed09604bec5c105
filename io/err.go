package io

import (
	"github.com/ezrec/uvm/translate"
)

var f = translate.From

// ErrDumpFormat is an unknown memory dump format name.
type ErrDumpFormat string

func (err ErrDumpFormat) Error() string {
	return f("'%v' is not a dump format", string(err))
}

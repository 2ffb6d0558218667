// Package errutil holds debug assertions for internal builder invariants.
// Assertions compile away unless debug is flipped on; they are never a
// substitute for the error returns on the public surface.
package errutil

import (
	"fmt"
)

const debug = false

func FatalIf(err error) {
	if err == nil {
		return
	}
	panic(fmt.Sprintf("FATAL: %v", err))
}

func Bug(format string, msg ...any) {
	if debug {
		panic(fmt.Sprintf(format, msg...))
	}
}

func BugOn(cond bool, format string, msg ...any) {
	if debug && cond {
		Bug(format, msg...)
	}
}

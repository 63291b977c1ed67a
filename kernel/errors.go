package kernel

import "errors"

var (
	errOutOfRange      = errors.New("nucleus: cpu index out of range")
	errNothingRunnable = errors.New("nucleus: nothing runnable on that cpu")
	errNoProcessSlots  = errors.New("nucleus: no free process slots")
	errUnknownPID      = errors.New("nucleus: no such pid")
	errNoChildren      = errors.New("nucleus: no children to wait for")
)

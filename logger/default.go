package logger

import "sync/atomic"

var defLogger atomic.Pointer[Logger]

func init() {
	l := NewSlog(InfoLevel, false)
	defLogger.Store(&l)
}

// SetLogger installs l as the logger handed to channels, transport workers,
// task managers and senders that are built without one. The gstream command
// calls it once its flags are parsed. A nil l is ignored.
func SetLogger(l Logger) {
	if l != nil {
		defLogger.Store(&l)
	}
}

// GetLogger returns the logger most recently installed with SetLogger, or an
// info-level console logger.
func GetLogger() Logger {
	return *defLogger.Load()
}

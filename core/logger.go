package core

// Logger is implemented by services/logger. Extra args may carry an error,
// a map of metadata or a user.User to attach to the report.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

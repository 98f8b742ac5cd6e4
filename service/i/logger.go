package i

// Logger is the logging surface every component receives at construction.
type Logger interface {
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

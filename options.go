package stream

// Logger is a global interface for stream loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
}

type (
	// Option provides a way to set functional parameters to registry and
	// scope.
	Option func(*config)

	config struct {
		log Logger
	}
)

// WithLogger sets logger. If this option is not provided, silent logger is
// used.
func WithLogger(logger Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.log = logger
		}
	}
}

func newConfig(options ...Option) config {
	c := config{log: defaultLogger}
	for _, option := range options {
		option(&c)
	}
	return c
}

type silentLogger struct{}

func (silentLogger) Debug(args ...interface{}) {}

func (silentLogger) Info(args ...interface{}) {}

var defaultLogger silentLogger

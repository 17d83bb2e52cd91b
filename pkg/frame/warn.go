package frame

// Warner receives the human-readable warnings of a frame execution.
type Warner interface {
	Warn(msg string)
}

// WarnFunc adapts a function to the Warner interface.
type WarnFunc func(msg string)

// Warn calls f(msg).
func (f WarnFunc) Warn(msg string) {
	f(msg)
}

type traceWarner struct{}

func (traceWarner) Warn(msg string) {
	tracer().Infof("warning: %s", msg)
}

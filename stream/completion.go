package stream

// Completion is the terminal signal of a stream: finished when Err is nil,
// failed otherwise.
type Completion struct {
	Err error
}

// Finished is the successful completion.
var Finished = Completion{}

// Failed returns a completion carrying err.
func Failed(err error) Completion {
	return Completion{Err: err}
}

// IsFinished reports whether c is a successful completion.
func (c Completion) IsFinished() bool { return c.Err == nil }

func (c Completion) String() string {
	if c.Err == nil {
		return "finished"
	}
	return "failed: " + c.Err.Error()
}

package ai

import "context"

// Analyzer sends one image to the vision provider. It must always return a
// Result; provider faults are reported as a failed Result, never as a panic.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) Result
}

// Result is either a success carrying the provider text or a failure
// carrying a message. Exactly one of the two is meaningful.
type Result struct {
	OK      bool
	Text    string
	Message string
}

func Success(text string) Result { return Result{OK: true, Text: text} }

func Failure(msg string) Result { return Result{OK: false, Message: msg} }

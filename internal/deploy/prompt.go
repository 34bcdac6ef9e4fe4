package deploy

import "strings"

// Prompter asks the user to confirm a pending change.
type Prompter interface {
	Confirm(message string) (bool, error)
}

// Reporter receives plans, scan results and apply progress.
type Reporter interface {
	Plan(plan Plan)
	Scanned(report PruneReport)
	Start(name string, total int)
	Advance()
	Done()
}

// Observer counts applied operations.
type Observer interface {
	ObjectWritten()
	ObjectDeleted()
	DeleteFailed()
	PruneClassified(class string, count int)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(message string) (bool, error)

func (f PrompterFunc) Confirm(message string) (bool, error) {
	return f(message)
}

// Decline answers every confirmation with no.
var Decline = PrompterFunc(func(string) (bool, error) { return false, nil })

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Plan(Plan) {}
func (NopReporter) Scanned(PruneReport) {}
func (NopReporter) Start(string, int) {}
func (NopReporter) Advance() {}
func (NopReporter) Done() {}

type nopObserver struct{}

func (nopObserver) ObjectWritten() {}
func (nopObserver) ObjectDeleted() {}
func (nopObserver) DeleteFailed() {}
func (nopObserver) PruneClassified(string, int) {}

func (e *Engine) confirm(message string, auto bool) error {
	if auto {
		return nil
	}
	if !strings.HasSuffix(message, ".") {
		message += "."
	}
	ok, err := e.prompter.Confirm(message + " Confirm?")
	if err != nil {
		return err
	}
	if !ok {
		return ErrCanceled
	}
	return nil
}

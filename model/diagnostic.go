package model

import "fmt"

// Severity grades a Diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Diagnostic is a message collected during a conversion run. File and Line
// are empty/zero when the message is not tied to an input line.
type Diagnostic struct {
	Severity Severity
	File     string
	Line     int
	Message  string
}

func (d Diagnostic) String() string {
	switch {
	case d.File != "" && d.Line > 0:
		return fmt.Sprintf("%s: %s:%d: %s", d.Severity, d.File, d.Line, d.Message)
	case d.File != "":
		return fmt.Sprintf("%s: %s: %s", d.Severity, d.File, d.Message)
	default:
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
}

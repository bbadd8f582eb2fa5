// Package errs holds the error types shared by the resource store, the
// template renderer, the converters and the report orchestrator.
package errs

import (
	"errors"
	"fmt"
)

// ErrSkipViewer is returned by a viewer that cannot handle a file so the next
// one in the chain is tried.
var ErrSkipViewer = errors.New("viewer skipped")

// ResourceLoadError reports a data file that could not be read or parsed.
type ResourceLoadError struct {
	Path string
	Err  error
}

func (e *ResourceLoadError) Error() string {
	return fmt.Sprintf("failed to load resource %s: %v", e.Path, e.Err)
}

func (e *ResourceLoadError) Unwrap() error { return e.Err }

// InconsistentResourceError reports two per-entity directories whose entity
// sets cannot be reconciled (neither contains the other).
type InconsistentResourceError struct {
	First  string
	Second string
	// OnlyFirst and OnlySecond list the entities missing from the other side.
	OnlyFirst  []string
	OnlySecond []string
}

func (e *InconsistentResourceError) Error() string {
	return fmt.Sprintf("inconsistent entities between %s %v and %s %v", e.First, e.OnlyFirst, e.Second, e.OnlySecond)
}

// TemplateRenderError wraps any failure raised while evaluating a template.
type TemplateRenderError struct {
	Destination string
	Kind        string
	Message     string
	Err         error
}

func (e *TemplateRenderError) Error() string {
	return fmt.Sprintf("error rendering %s: %s: %s", e.Destination, e.Kind, e.Message)
}

func (e *TemplateRenderError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports an output or table format that is not handled.
type UnsupportedFormatError struct {
	Format  string
	Context string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("unsupported format %q", e.Format)
	}
	return fmt.Sprintf("unsupported %s format %q", e.Context, e.Format)
}

// ConversionError reports a failed external conversion.
type ConversionError struct {
	Source      string
	Destination string
	From        string
	To          string
	Output      string
	Err         error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("failed to convert %s (%s) to %s (%s)", e.Source, e.From, e.Destination, e.To)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Kind returns a short category name for err, used when wrapping foreign
// errors into a TemplateRenderError.
func Kind(err error) string {
	var (
		unsupported  *UnsupportedFormatError
		load         *ResourceLoadError
		inconsistent *InconsistentResourceError
		conversion   *ConversionError
	)
	switch {
	case errors.As(err, &unsupported):
		return "UnsupportedFormatError"
	case errors.As(err, &load):
		return "ResourceLoadError"
	case errors.As(err, &inconsistent):
		return "InconsistentResourceError"
	case errors.As(err, &conversion):
		return "ConversionError"
	}
	return fmt.Sprintf("%T", err)
}

package docconv

import "fmt"

// ConversionError is a failure reported by the conversion service itself.
type ConversionError struct {
	Code    string
	Message string
	Status  int
}

func (e *ConversionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("document conversion failed (%s)", e.Code)
	}
	return fmt.Sprintf("document conversion failed (%s): %s", e.Code, e.Message)
}

// internal/imaging/errors.go
package imaging

import "fmt"

// DecodeError is returned when the input bytes are not a supported raster image
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ResourceError is returned when a resource the renderer depends on, such as
// the annotation font, cannot be located or loaded
type ResourceError struct {
	Resource string
	Path     string
	Err      error
}

func (e *ResourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cannot load %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("cannot load %s at %s: %v", e.Resource, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

package shape

import (
	"fmt"
	"reflect"
)

// UnsupportedShapeError is returned when a type cannot be decomposed into
// comparable parts, for example channels, functions or structs without
// exported fields.
type UnsupportedShapeError struct {
	Type   reflect.Type
	Path   string // where the value was met, if known
	Reason string
}

func (e *UnsupportedShapeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("unsupported shape %v at %s: %s", e.Type, e.Path, e.Reason)
	}
	return fmt.Sprintf("unsupported shape %v: %s", e.Type, e.Reason)
}

// TagError reports a malformed diff struct tag or manifest.
type TagError struct {
	Type  reflect.Type
	Field string
	Err   error
}

func (e *TagError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("bad diff configuration on %v.%s: %v", e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("bad diff configuration on %v: %v", e.Type, e.Err)
}

func (e *TagError) Unwrap() error {
	return e.Err
}

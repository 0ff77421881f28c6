// Package exception turns values of unknown shape (errors, strings, maps,
// structs, anything a backend hands back) into stable diagnostic strings.
//
// ExtractMessage and ExtractStack are total: they never panic and never
// return an error. When a value cannot be rendered they return one of the
// sentinel strings declared below.
package exception

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/juju/errors"
)

// Sentinels returned when no usable text can be extracted.
const (
	NoMessage        = "NO_MESSAGE_INCLUDED_IN_EXCEPTION"
	InvalidMessage   = "INVALID_EXCEPTION_MESSAGE"
	InvalidException = "INVALID_EXCEPTION"
	NoStack          = "NO_STACK_INFORMATION_INCLUDED_IN_EXCEPTION"
	InvalidStack     = "INVALID_STACK_INFORMATION"
)

// maxChainDepth bounds the walk over a cause chain. A chain longer than this
// is assumed to loop back on itself.
const maxChainDepth = 64

// ExtractMessage returns a descriptive message for exception.
//
// The value is inspected in order: absent, error or composite with a
// "message" field, string, anything else. Non-string message fields and
// opaque values are rendered as JSON.
func ExtractMessage(exception any) (message string) {
	defer func() {
		if recover() != nil {
			message = InvalidException
		}
	}()

	if isAbsent(exception) {
		return NoMessage
	}
	if err, ok := exception.(error); ok {
		return err.Error()
	}
	if field, ok := lookupField(exception, "message"); ok {
		if s, ok := field.(string); ok {
			return s
		}
		return SafeMarshal(field, InvalidMessage)
	}
	if s, ok := asString(exception); ok {
		return s
	}
	return SafeMarshal(exception, InvalidException)
}

// ExtractStack returns descriptive stack information for exception.
//
// Errors carrying a cause chain are rendered as JSON including every link.
// Composite values with a "stack" field yield that field. Everything else
// yields NoStack.
func ExtractStack(exception any) (stack string) {
	defer func() {
		if recover() != nil {
			stack = InvalidStack
		}
	}()

	if isAbsent(exception) {
		return NoStack
	}
	if err, ok := richError(exception); ok {
		return marshalChain(err)
	}
	if field, ok := lookupField(exception, "stack"); ok {
		if s, ok := field.(string); ok {
			return s
		}
		return SafeMarshal(field, InvalidStack)
	}
	return NoStack
}

// SafeMarshal renders v as JSON. Any failure, including reference cycles and
// panicking MarshalJSON implementations, yields fallback.
func SafeMarshal(v any, fallback string) (out string) {
	defer func() {
		if recover() != nil {
			out = fallback
		}
	}()

	data, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(data)
}

// isAbsent reports nil values and zero scalars (empty string, 0, false, NaN).
// Zero structs and empty non-nil collections are present.
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.IsZero()
	case reflect.Float32, reflect.Float64:
		return rv.IsZero() || math.IsNaN(rv.Float())
	}
	return false
}

func asString(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// stackTracer is implemented by errors from github.com/juju/errors.
type stackTracer interface {
	StackTrace() []string
}

// lookupField returns the named field of a map with string keys, of a struct
// (matched by exported name or json tag), or the stack trace of an error.
func lookupField(v any, name string) (any, bool) {
	if name == "stack" {
		if st, ok := v.(stackTracer); ok {
			return st.StackTrace(), true
		}
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		value := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !value.IsValid() || !value.CanInterface() {
			return nil, false
		}
		return value.Interface(), true
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if tag == name || (tag == "" && strings.EqualFold(f.Name, name)) {
				return rv.Field(i).Interface(), true
			}
		}
	}
	return nil, false
}

type locationer interface {
	Location() (string, int)
}

type causer interface {
	Cause() error
}

type multiUnwrapper interface {
	Unwrap() []error
}

// richError reports whether v is an error that carries a cause chain or
// source locations of its own.
func richError(v any) (error, bool) {
	err, ok := v.(error)
	if !ok {
		return nil, false
	}
	if stderrors.Unwrap(err) != nil {
		return err, true
	}
	switch err.(type) {
	case locationer, causer, multiUnwrapper:
		return err, true
	}
	return nil, false
}

type link struct {
	Message  string `json:"message"`
	Type     string `json:"type"`
	Location string `json:"location,omitempty"`
	Causes   []link `json:"causes,omitempty"`
}

type chain struct {
	Message string `json:"message"`
	Trace   string `json:"trace"`
	Chain   link   `json:"chain"`
}

type messager interface {
	Message() string
}

func marshalChain(err error) string {
	root, ok := describe(err, 0)
	if !ok {
		return InvalidStack
	}
	return SafeMarshal(chain{
		Message: err.Error(),
		Trace:   errors.ErrorStack(err),
		Chain:   root,
	}, InvalidStack)
}

func describe(err error, depth int) (link, bool) {
	if depth > maxChainDepth {
		return link{}, false
	}
	l := link{
		Message: err.Error(),
		Type:    fmt.Sprintf("%T", err),
	}
	if m, ok := err.(messager); ok && m.Message() != "" {
		l.Message = m.Message()
	}
	if loc, ok := err.(locationer); ok {
		if file, line := loc.Location(); file != "" {
			l.Location = fmt.Sprintf("%s:%d", file, line)
		}
	}

	var next []error
	switch e := err.(type) {
	case multiUnwrapper:
		next = e.Unwrap()
	default:
		if inner := stderrors.Unwrap(err); inner != nil {
			next = []error{inner}
		}
	}
	for _, inner := range next {
		if inner == nil {
			continue
		}
		cause, ok := describe(inner, depth+1)
		if !ok {
			return link{}, false
		}
		l.Causes = append(l.Causes, cause)
	}
	return l, true
}

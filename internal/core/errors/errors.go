package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeDependencyNotFound ErrorCode = "DEPENDENCY_NOT_FOUND"
	CodeValidationError    ErrorCode = "VALIDATION_ERROR"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
	CodePermissionDenied   ErrorCode = "PERMISSION_DENIED"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxSpecifier = "specifier"
	CtxStatement = "statement"
	CtxCandidate = "candidate"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%q", k, fmt.Sprint(e.Context[k])))
		}
		msg += " {" + strings.Join(parts, " ") + "}"
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// FromFS wraps a filesystem error, mapping permission failures to
// CodePermissionDenied and everything else to CodeInternal.
func FromFS(err error, op, path string) *DomainError {
	code := CodeInternal
	if errors.Is(err, fs.ErrPermission) {
		code = CodePermissionDenied
	}
	return Wrap(err, code, op+" failed").
		WithContext(CtxOperation, op).
		WithContext(CtxPath, path)
}

// AddContext attaches a context value, wrapping plain errors as CodeInternal.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

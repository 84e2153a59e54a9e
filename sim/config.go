package sim

import (
	"errors"
	"fmt"
	"math"
)

// Errors that may be reported while a component is being configured.
var (
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrWrongValueType   = errors.New("wrong value type")
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrAlreadySetUp     = errors.New("component already set up")
)

// ValueKind is the type of the value held by a ConfigValue.
type ValueKind int

// All the kinds of config values.
const (
	KindInt ValueKind = iota
	KindString
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// ConfigValue is a typed configuration value.
type ConfigValue struct {
	kind ValueKind
	i    int64
	s    string
	b    bool
}

// IntValue creates an integer config value.
func IntValue(v int64) ConfigValue {
	return ConfigValue{kind: KindInt, i: v}
}

// UintValue creates an integer config value from an unsigned integer. Values
// that do not fit in an int64 are rejected.
func UintValue(v uint64) (ConfigValue, error) {
	if v > math.MaxInt64 {
		return ConfigValue{}, fmt.Errorf("%w: %d is out of range",
			ErrInvalidConfig, v)
	}

	return IntValue(int64(v)), nil
}

// StringValue creates a string config value.
func StringValue(v string) ConfigValue {
	return ConfigValue{kind: KindString, s: v}
}

// BoolValue creates a boolean config value.
func BoolValue(v bool) ConfigValue {
	return ConfigValue{kind: KindBool, b: v}
}

// Kind returns the kind of the value.
func (v ConfigValue) Kind() ValueKind {
	return v.kind
}

// AsInt returns the integer held by the value.
func (v ConfigValue) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, fmt.Errorf("%w: want int, got %s", ErrWrongValueType, v.kind)
	}

	return v.i, nil
}

// AsString returns the string held by the value.
func (v ConfigValue) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("%w: want string, got %s",
			ErrWrongValueType, v.kind)
	}

	return v.s, nil
}

// AsBool returns the boolean held by the value.
func (v ConfigValue) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("%w: want bool, got %s",
			ErrWrongValueType, v.kind)
	}

	return v.b, nil
}

// String prints the value regardless of its kind.
func (v ConfigValue) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindString:
		return v.s
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	default:
		return "?"
	}
}

// ConfigError reports a configuration problem of a component.
type ConfigError struct {
	Component string
	Param     string
	Err       error
}

// NewConfigError creates a ConfigError.
func NewConfigError(component, param string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Param:     param,
		Err:       err,
	}
}

func (e *ConfigError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s: %v", e.Component, e.Err)
	}

	return fmt.Sprintf("%s: parameter %q: %v", e.Component, e.Param, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// A Configurable object receives parameters before it is set up. All the
// effects of the parameters are deferred until FinishSetup.
type Configurable interface {
	SetConfigParameter(name string, value ConfigValue) error
	FinishSetup() error
}

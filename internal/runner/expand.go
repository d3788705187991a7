package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
)

var varPattern = regexp.MustCompile(`\$\{[A-Za-z_][A-Za-z0-9_]*\}|\$[A-Za-z_][A-Za-z0-9_]*`)

const (
	expandTag = "expand"

	// ExpandEnv replaces $VAR and ${VAR} references.
	ExpandEnv = "env"
	// ExpandPath replaces variable references and then a leading "~".
	ExpandPath = "path"
)

// Expander resolves variable references in configuration values. Unknown
// variables are left untouched so literal dollar signs survive.
type Expander struct {
	lookup func(string) (string, bool)
	home   func() (string, error)
}

type ExpanderOption func(*Expander)

func WithLookup(lookup func(string) (string, bool)) ExpanderOption {
	return func(e *Expander) {
		e.lookup = lookup
	}
}

func WithHomeDir(home func() (string, error)) ExpanderOption {
	return func(e *Expander) {
		e.home = home
	}
}

func NewExpander(opts ...ExpanderOption) *Expander {
	e := &Expander{
		lookup: os.LookupEnv,
		home:   os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExpandFields walks the struct pointed to by in and rewrites every string
// field carrying an `expand` tag in place. Nested structs, *struct and
// []struct are explored whether or not they are tagged. A tagged []string has
// each element expanded.
func ExpandFields[T any](e *Expander, in *T) error {
	if in == nil {
		return nil
	}
	v := reflect.ValueOf(in).Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("ExpandFields expects *struct; got *%s", v.Type())
	}
	return e.expandStruct(v)
}

func (e *Expander) expandStruct(v reflect.Value) error {
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		field := v.Field(i)
		mode := sf.Tag.Get(expandTag)

		switch field.Kind() {
		case reflect.String:
			if mode == "" || mode == "-" {
				continue
			}
			expanded, err := e.Expand(mode, field.String())
			if err != nil {
				return fmt.Errorf("failed to expand %s: %w", sf.Name, err)
			}
			field.SetString(expanded)

		case reflect.Ptr:
			if field.IsNil() || field.Elem().Kind() != reflect.Struct {
				continue
			}
			if err := e.expandStruct(field.Elem()); err != nil {
				return err
			}

		case reflect.Struct:
			if err := e.expandStruct(field); err != nil {
				return err
			}

		case reflect.Slice:
			if field.IsNil() {
				continue
			}
			if err := e.expandSlice(field, mode); err != nil {
				return fmt.Errorf("failed to expand %s: %w", sf.Name, err)
			}

		default:
			continue
		}
	}
	return nil
}

func (e *Expander) expandSlice(v reflect.Value, mode string) error {
	elemTyp := v.Type().Elem()
	switch {
	case elemTyp.Kind() == reflect.String:
		if mode == "" || mode == "-" {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			el := v.Index(i)
			expanded, err := e.Expand(mode, el.String())
			if err != nil {
				return err
			}
			el.SetString(expanded)
		}
	case elemTyp.Kind() == reflect.Struct:
		for i := 0; i < v.Len(); i++ {
			if err := e.expandStruct(v.Index(i)); err != nil {
				return err
			}
		}
	case elemTyp.Kind() == reflect.Ptr && elemTyp.Elem().Kind() == reflect.Struct:
		for i := 0; i < v.Len(); i++ {
			if el := v.Index(i); !el.IsNil() {
				if err := e.expandStruct(el.Elem()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Expand resolves value according to mode.
func (e *Expander) Expand(mode, value string) (string, error) {
	switch mode {
	case ExpandEnv:
		return e.env(value), nil
	case ExpandPath:
		return e.path(value)
	default:
		return "", fmt.Errorf("unknown expand mode %q", mode)
	}
}

func (e *Expander) env(value string) string {
	if !strings.Contains(value, "$") {
		return value
	}
	return varPattern.ReplaceAllStringFunc(value, func(ref string) string {
		key := strings.Trim(ref, "${}")
		if val, ok := e.lookup(key); ok {
			return val
		}
		return ref
	})
}

func (e *Expander) path(value string) (string, error) {
	value = e.env(value)
	if value != "~" && !strings.HasPrefix(value, "~/") {
		return value, nil
	}

	home, err := e.home()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(value, "~")), nil
}

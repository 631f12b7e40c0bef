package appsetting

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/gitforge-admin/gitforge-admin/internal/visibility"
)

var (
	errNotBool   = errors.New("not a boolean")
	errNotNumber = errors.New("not a number")

	levelType = reflect.TypeOf(visibility.Level(0)) //nolint:gochecknoglobals

	// attributes maps the form name of every settable attribute to its struct field index.
	attributes = indexAttributes() //nolint:gochecknoglobals
)

func indexAttributes() map[string]int {
	t := reflect.TypeOf(Settings{})
	out := make(map[string]int, t.NumField())

	for i := range t.NumField() {
		name := t.Field(i).Tag.Get("form")
		if name == "" || name == "-" {
			continue
		}

		out[name] = i
	}

	return out
}

// Attributes returns the form names of all settable attributes.
func Attributes() []string {
	out := make([]string, 0, len(attributes))
	for name := range attributes {
		out = append(out, name)
	}

	return out
}

// coerceString converts submitted strings into the kind of the target field.
// Booleans accept the usual checkbox values, numbers are parsed base 10 and
// visibility levels accept codes and names.
func coerceString(_ reflect.Type, to reflect.Type, data any) (any, error) {
	s, ok := data.(string)
	if !ok {
		return data, nil
	}

	s = strings.TrimSpace(s)

	if to == levelType {
		return visibility.Parse(s)
	}

	switch to.Kind() { //nolint:exhaustive // other kinds are decoded as is
	case reflect.Bool:
		switch strings.ToLower(s) {
		case "1", "true", "t", "on", "yes":
			return true, nil
		case "0", "false", "f", "off", "no", "":
			return false, nil
		}

		return nil, errNotBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errNotNumber
		}

		return n, nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errNotNumber
		}

		return f, nil
	}

	return s, nil
}

// normalizeList drops blank entries so an empty string inside a list means "empty set".
func normalizeList(value any) any {
	switch v := value.(type) {
	case nil:
		return []string{}
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}
		}
	case []string:
		out := make([]string, 0, len(v))

		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}

		return out
	case []any:
		out := make([]any, 0, len(v))

		for _, e := range v {
			if s, ok := e.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}

			out = append(out, e)
		}

		return out
	}

	return value
}

// decodeAttribute decodes one submitted value into a new value of the field type.
func decodeAttribute(field reflect.StructField, value any) (reflect.Value, error) {
	if field.Type.Kind() == reflect.Slice {
		value = normalizeList(value)
	}

	target := reflect.New(field.Type)

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(coerceString),
		WeaklyTypedInput: true,
		Result:           target.Interface(),
	})
	if err != nil {
		return reflect.Value{}, err
	}

	if err = dec.Decode(value); err != nil {
		return reflect.Value{}, err
	}

	return target.Elem(), nil
}

// decodeMessage is the user facing message of a failed decode into t.
func decodeMessage(t reflect.Type) string {
	switch {
	case t == levelType:
		return msgNotInList
	case t.Kind() == reflect.Bool:
		return "is not a boolean"
	case t.Kind() == reflect.Slice && t.Elem() == levelType:
		return msgNotInList
	case t.Kind() == reflect.Slice:
		return msgInvalid
	}

	return "is not a number"
}

// Package form reads scoped request parameters such as application_setting[name]
// from url encoded, multipart and JSON bodies.
package form

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

// ErrInvalidBody is returned for bodies that can not be parsed.
var ErrInvalidBody = errors.New("invalid request body")

const listSuffix = "[]"

// Params returns the attributes submitted under scope.
//
// Form keys "scope[name]" yield single values, the last one wins when a key is repeated.
// Keys "scope[name][]" yield lists. JSON bodies may wrap the attributes in an object
// named scope or send them flat. An empty scope accepts plain keys.
func Params(c *fiber.Ctx, scope string) (map[string]any, error) {
	ct := strings.ToLower(string(c.Request().Header.ContentType()))

	switch {
	case strings.HasPrefix(ct, fiber.MIMEApplicationJSON):
		return jsonParams(c.Body(), scope)
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		mf, err := c.MultipartForm()
		if err != nil {
			return nil, errors.Join(ErrInvalidBody, err)
		}

		var pairs [][2]string

		for k, vs := range mf.Value {
			for _, v := range vs {
				pairs = append(pairs, [2]string{k, v})
			}
		}

		return formParams(pairs, scope), nil
	}

	var pairs [][2]string

	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		pairs = append(pairs, [2]string{string(k), string(v)})
	})

	return formParams(pairs, scope), nil
}

func jsonParams(body []byte, scope string) (map[string]any, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return map[string]any{}, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.Join(ErrInvalidBody, err)
	}

	if scope != "" {
		if inner, ok := raw[scope].(map[string]any); ok {
			return inner, nil
		}
	}

	return raw, nil
}

func formParams(pairs [][2]string, scope string) map[string]any {
	out := make(map[string]any)

	for _, p := range pairs {
		name, list, ok := attributeName(p[0], scope)
		if !ok {
			continue
		}

		if !list {
			out[name] = p[1]
			continue
		}

		values, _ := out[name].([]string)
		out[name] = append(values, p[1])
	}

	return out
}

// attributeName extracts the attribute from key; list reports a trailing "[]".
func attributeName(key, scope string) (name string, list, ok bool) {
	if strings.HasSuffix(key, listSuffix) {
		key, list = strings.TrimSuffix(key, listSuffix), true
	}

	if scope == "" {
		return key, list, key != "" && !strings.ContainsAny(key, "[]")
	}

	prefix := scope + "["
	if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, "]") {
		return "", false, false
	}

	name = key[len(prefix) : len(key)-1]

	return name, list, name != "" && !strings.ContainsAny(name, "[]")
}

// Strings converts scalar attributes to strings; lists and objects are dropped.
func Strings(params map[string]any) map[string]string {
	out := make(map[string]string, len(params))

	for k, v := range params {
		s, err := cast.ToStringE(v)
		if err != nil {
			continue
		}

		out[k] = s
	}

	return out
}

package testutil

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/gofiber/fiber/v2"
)

// Render is one recorded template render.
type Render struct {
	Name    string
	Binding fiber.Map
	Layouts []string
}

// Views is a fiber.Views engine recording every render.
// It writes the template name followed by the JSON encoded binding so handlers can be asserted
// without the real templates.
type Views struct {
	mu      sync.Mutex
	renders []Render
}

// Load implements fiber.Views.
func (v *Views) Load() error { return nil }

// Render implements fiber.Views.
func (v *Views) Render(w io.Writer, name string, data any, layouts ...string) error {
	binding, _ := data.(fiber.Map)

	v.mu.Lock()
	v.renders = append(v.renders, Render{Name: name, Binding: binding, Layouts: layouts})
	v.mu.Unlock()

	if _, err := io.WriteString(w, name+"\n"); err != nil {
		return err
	}

	// bindings holding funcs or channels are recorded but not written
	_ = json.NewEncoder(w).Encode(binding) //nolint:errchkjson

	return nil
}

// Last returns the most recent render, ok is false when nothing was rendered.
func (v *Views) Last() (Render, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.renders) == 0 {
		return Render{}, false
	}

	return v.renders[len(v.renders)-1], true
}

package usage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const highlightStyle = "github"

//nolint:gochecknoglobals
var formatter = html.New(html.WithClasses(true), html.PreventSurroundingPre(true))

// JSON returns the payload pretty printed.
func JSON(p *Payload) ([]byte, error) {
	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode usage data: %w", err)
	}

	return out, nil
}

// HTML returns the pretty printed payload as highlighted span markup without a surrounding pre element.
func HTML(p *Payload) (string, error) {
	src, err := JSON(p)
	if err != nil {
		return "", err
	}

	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}

	it, err := chroma.Coalesce(lexer).Tokenise(nil, string(src))
	if err != nil {
		return "", fmt.Errorf("failed to tokenise usage data: %w", err)
	}

	var buf bytes.Buffer
	if err = formatter.Format(&buf, styles.Get(highlightStyle), it); err != nil {
		return "", fmt.Errorf("failed to highlight usage data: %w", err)
	}

	return buf.String(), nil
}

// CSS returns the stylesheet for the classes used by HTML.
func CSS() (string, error) {
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, styles.Get(highlightStyle)); err != nil {
		return "", err
	}

	return buf.String(), nil
}

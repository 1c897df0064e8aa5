// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package textutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/docker/go-units"
)

// ExecuteTemplate executes a text/template template with [TemplateFuncMap].
func ExecuteTemplate(tmpl string, args any) ([]byte, error) {
	x, err := template.New("").Funcs(TemplateFuncMap).Parse(tmpl)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if err := x.Execute(&b, args); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// PrefixString adds prefix to the beginning of each non-empty line.
func PrefixString(prefix, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// IndentString adds size spaces to the beginning of each non-empty line.
func IndentString(size int, text string) string {
	return PrefixString(strings.Repeat(" ", size), text)
}

// TemplateFuncMap is the FuncMap used for generated documentation.
var TemplateFuncMap = template.FuncMap{
	"json": func(v any) (string, error) {
		var b bytes.Buffer
		enc := json.NewEncoder(&b)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("failed to marshal as JSON: %+v: %w", v, err)
		}
		return strings.TrimSuffix(b.String(), "\n"), nil
	},
	"indent": func(a ...any) (string, error) {
		if len(a) == 0 || len(a) > 2 {
			return "", errors.New("function takes one or two arguments")
		}
		size := 2
		if len(a) == 2 {
			n, ok := a[0].(int)
			if !ok {
				return "", errors.New("optional first argument must be an integer")
			}
			size = n
		}
		text, ok := a[len(a)-1].(string)
		if !ok {
			return "", errors.New("last argument must be a string")
		}
		return IndentString(size, text), nil
	},
	"humanSize": func(n int64) string {
		return units.BytesSize(float64(n))
	},
}

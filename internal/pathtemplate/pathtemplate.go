// Package pathtemplate expands URL path templates of the form
// "/users/{id}/posts/{post}" against named parameter values.
package pathtemplate

import (
	"fmt"
	"net/url"
	"strings"
)

// Expand substitutes every {name} placeholder with the value returned by
// lookup, path-escaped. An unclosed or empty placeholder, or a name lookup
// misses, is an error.
func Expand(template string, lookup func(name string) (any, bool)) (string, error) {
	var b strings.Builder
	for i := 0; i < len(template); {
		c := template[i]
		if c != '{' {
			b.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(template[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("unclosed placeholder in %q", template)
		}
		name := template[i+1 : i+end]
		if name == "" {
			return "", fmt.Errorf("empty placeholder in %q", template)
		}
		v, ok := lookup(name)
		if !ok {
			return "", fmt.Errorf("no value for placeholder %q", name)
		}
		b.WriteString(url.PathEscape(fmt.Sprint(v)))
		i += end + 1
	}
	return b.String(), nil
}

// Names returns the placeholder names in template, in order of appearance.
func Names(template string) ([]string, error) {
	var names []string
	for i := 0; i < len(template); {
		if template[i] != '{' {
			i++
			continue
		}
		end := strings.IndexByte(template[i:], '}')
		if end < 0 {
			return nil, fmt.Errorf("unclosed placeholder in %q", template)
		}
		name := template[i+1 : i+end]
		if name == "" {
			return nil, fmt.Errorf("empty placeholder in %q", template)
		}
		names = append(names, name)
		i += end + 1
	}
	return names, nil
}

package shape

import (
	"fmt"
	"reflect"
	"strings"
)

const tagKey = "diff"

// Tag options.
const (
	optIgnore = "ignore"
	optSkip   = "-"
	optID     = "id"
	optAlgo   = "algo"
	optName   = "name"
)

// parseTag parses a diff struct tag into its options. Options are comma
// separated flags or key=value pairs; values may be single or double quoted:
//
//	`diff:"id"`
//	`diff:"algo=levenshtein,name='home address'"`
func parseTag(tag string) (map[string]string, error) {
	res := map[string]string{}
	if tag == "" {
		return res, nil
	}
	var parts []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			cur.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			cur.WriteByte(c)
		case c == ',':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in tag %q", tag)
	}
	parts = append(parts, cur.String())

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, fmt.Errorf("empty key in %q", part)
		}
		if _, dup := res[k]; dup {
			return nil, fmt.Errorf("duplicate option %q", k)
		}
		res[k] = unquote(strings.TrimSpace(v))
	}
	return res, nil
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '\'' || v[0] == '"') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// fieldName returns the path segment for sf absent a name= option.
func fieldName(sf reflect.StructField) string {
	j := sf.Tag.Get("json")
	if j == "" {
		return sf.Name
	}
	name, _, _ := strings.Cut(j, ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

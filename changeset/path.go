package changeset

import (
	"fmt"
	"strconv"
	"strings"
)

type StepKind int

const (
	FieldStep StepKind = iota
	IndexStep
	KeyStep
)

// Step is one segment of a Path.
type Step struct {
	Kind  StepKind
	Name  string // field name or map key
	Index int
}

// Path locates a value relative to the compared root, for example
// primaryAddress.city, skills[2] or labels["a.b"]. The empty path is the
// root.
type Path []Step

// Field returns p extended by a field step. p itself is never modified.
func (p Path) Field(name string) Path {
	return append(p[:len(p):len(p)], Step{Kind: FieldStep, Name: name})
}

func (p Path) Index(i int) Path {
	return append(p[:len(p):len(p)], Step{Kind: IndexStep, Index: i})
}

func (p Path) Key(k string) Path {
	return append(p[:len(p):len(p)], Step{Kind: KeyStep, Name: k})
}

// Last returns the last step of p.
func (p Path) Last() (Step, bool) {
	if len(p) == 0 {
		return Step{}, false
	}
	return p[len(p)-1], true
}

// HasPrefix reports whether q is a prefix of p, step by step.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		switch s.Kind {
		case FieldStep:
			if needsQuote(s.Name) {
				b.WriteString("[" + strconv.Quote(s.Name) + "]")
				continue
			}
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.Name)
		case IndexStep:
			b.WriteString("[" + strconv.Itoa(s.Index) + "]")
		case KeyStep:
			if needsQuote(s.Name) {
				b.WriteString("[" + strconv.Quote(s.Name) + "]")
			} else {
				b.WriteString("[" + s.Name + "]")
			}
		}
	}
	return b.String()
}

func needsQuote(s string) bool {
	if s == "" || strings.ContainsAny(s, ".[]\"' \t\n") {
		return true
	}
	return isDigits(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Pointer renders p as an RFC 6901 JSON pointer.
func (p Path) Pointer() string {
	var b strings.Builder
	for _, s := range p {
		b.WriteByte('/')
		switch s.Kind {
		case IndexStep:
			b.WriteString(strconv.Itoa(s.Index))
		default:
			b.WriteString(pointerEscaper.Replace(s.Name))
		}
	}
	return b.String()
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// ParsePath parses the output of Path.String. Quoted bracket segments
// parse as keys; a quoted field name therefore comes back as a key step,
// which renders identically.
func ParsePath(s string) (Path, error) {
	var p Path
	i := 0
	for i < len(s) {
		if s[i] == '[' {
			j := i + 1
			if j < len(s) && s[j] == '"' {
				q, err := strconv.QuotedPrefix(s[j:])
				if err != nil {
					return nil, fmt.Errorf("bad quoted segment at %d in %q: %w", j, s, err)
				}
				k, _ := strconv.Unquote(q)
				j += len(q)
				if j >= len(s) || s[j] != ']' {
					return nil, fmt.Errorf("missing ] at %d in %q", j, s)
				}
				p = append(p, Step{Kind: KeyStep, Name: k})
				i = j + 1
				continue
			}
			end := strings.IndexByte(s[j:], ']')
			if end < 0 {
				return nil, fmt.Errorf("missing ] after %d in %q", i, s)
			}
			tok := s[j : j+end]
			if isDigits(tok) {
				n, err := strconv.Atoi(tok)
				if err != nil {
					return nil, fmt.Errorf("bad index %q in %q: %w", tok, s, err)
				}
				p = append(p, Step{Kind: IndexStep, Index: n})
			} else {
				p = append(p, Step{Kind: KeyStep, Name: tok})
			}
			i = j + end + 1
			continue
		}
		if s[i] == '.' {
			if len(p) == 0 {
				return nil, fmt.Errorf("path %q starts with '.'", s)
			}
			i++
		} else if len(p) > 0 {
			return nil, fmt.Errorf("expected '.' or '[' at %d in %q", i, s)
		}
		j := i
		for j < len(s) && s[j] != '.' && s[j] != '[' {
			j++
		}
		if j == i {
			return nil, fmt.Errorf("empty field name at %d in %q", i, s)
		}
		p = append(p, Step{Kind: FieldStep, Name: s[i:j]})
		i = j
	}
	return p, nil
}

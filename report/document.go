package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/signadot/objdiff/changeset"
)

// Document is the serialized form of a change set. Each entry only
// carries the fields meaningful for its kind, in a fixed order, so the
// JSON and YAML renderings are stable.
//
// Numbers read back as int64 when integral and in range, uint64 when
// larger, and float64 otherwise.
type Document struct {
	HasChanges bool    `json:"hasChanges" yaml:"hasChanges"`
	Changes    []Entry `json:"changes" yaml:"changes"`
}

// Entry is one serialized change.
type Entry struct {
	Kind        changeset.Kind
	Path        string
	Old, New    any
	Element     any
	Position    int
	OldPosition int
	OldRef      any
	NewRef      any
}

func ToDocument(cs *changeset.ChangeSet) Document {
	doc := Document{HasChanges: cs.HasChanges(), Changes: make([]Entry, 0, cs.Len())}
	for _, c := range cs.Changes() {
		doc.Changes = append(doc.Changes, Entry{
			Kind:        c.Kind,
			Path:        c.Path.String(),
			Old:         c.Old,
			New:         c.New,
			Element:     c.Element,
			Position:    c.Position,
			OldPosition: c.OldPosition,
			OldRef:      c.OldRef,
			NewRef:      c.NewRef,
		})
	}
	return doc
}

func FromDocument(doc Document) (*changeset.ChangeSet, error) {
	changes := make([]changeset.Change, 0, len(doc.Changes))
	for i := range doc.Changes {
		e := &doc.Changes[i]
		p, err := changeset.ParsePath(e.Path)
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
		changes = append(changes, changeset.Change{
			Kind:        e.Kind,
			Path:        p,
			Old:         e.Old,
			New:         e.New,
			Element:     e.Element,
			Position:    e.Position,
			OldPosition: e.OldPosition,
			OldRef:      e.OldRef,
			NewRef:      e.NewRef,
		})
	}
	cs := changeset.New(changes...)
	if cs.HasChanges() != doc.HasChanges {
		return nil, fmt.Errorf("document hasChanges is %t with %d changes", doc.HasChanges, cs.Len())
	}
	return cs, nil
}

func (e Entry) fields() yaml.MapSlice {
	res := yaml.MapSlice{
		{Key: "kind", Value: e.Kind.String()},
		{Key: "path", Value: e.Path},
	}
	switch e.Kind {
	case changeset.PropertyChange:
		res = append(res, yaml.MapItem{Key: "old", Value: e.Old}, yaml.MapItem{Key: "new", Value: e.New})
	case changeset.ElementAdded, changeset.ElementRemoved:
		res = append(res, yaml.MapItem{Key: "element", Value: e.Element})
		if e.Position != changeset.NoPosition {
			res = append(res, yaml.MapItem{Key: "position", Value: e.Position})
		}
	case changeset.ElementMoved:
		res = append(res,
			yaml.MapItem{Key: "element", Value: e.Element},
			yaml.MapItem{Key: "oldPosition", Value: e.OldPosition},
			yaml.MapItem{Key: "position", Value: e.Position})
	case changeset.ReferenceChange:
		res = append(res, yaml.MapItem{Key: "oldRef", Value: e.OldRef}, yaml.MapItem{Key: "newRef", Value: e.NewRef})
	}
	return res
}

func (e *Entry) setFields(m map[string]any) error {
	kind, ok := m["kind"].(string)
	if !ok {
		return fmt.Errorf("change has no kind")
	}
	k, err := changeset.ParseKind(kind)
	if err != nil {
		return err
	}
	path, _ := m["path"].(string)
	*e = Entry{
		Kind:        k,
		Path:        path,
		Old:         normalize(m["old"]),
		New:         normalize(m["new"]),
		Element:     normalize(m["element"]),
		Position:    changeset.NoPosition,
		OldPosition: changeset.NoPosition,
		OldRef:      normalize(m["oldRef"]),
		NewRef:      normalize(m["newRef"]),
	}
	if e.Position, err = position(m, "position"); err != nil {
		return err
	}
	if e.OldPosition, err = position(m, "oldPosition"); err != nil {
		return err
	}
	return nil
}

func position(m map[string]any, key string) (int, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return changeset.NoPosition, nil
	}
	switch n := normalize(v).(type) {
	case int64:
		return int(n), nil
	}
	return 0, fmt.Errorf("%s %v is not an integer", key, v)
}

// normalize converts decoded JSON or YAML into payload values.
func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(string(x), 10, 64); err == nil {
			return u
		}
		f, _ := x.Float64()
		return f
	case int:
		return int64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
	case []any:
		res := make([]any, len(x))
		for i := range x {
			res[i] = normalize(x[i])
		}
		return res
	case map[string]any:
		res := make(map[string]any, len(x))
		for k, y := range x {
			res[k] = normalize(y)
		}
		return res
	case map[any]any:
		res := make(map[string]any, len(x))
		for k, y := range x {
			res[fmt.Sprint(k)] = normalize(y)
		}
		return res
	}
	return v
}

func (e Entry) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, item := range e.fields() {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(item.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(item.Value)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", e.Path, item.Key, err)
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (e *Entry) UnmarshalJSON(d []byte) error {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	return e.setFields(m)
}

func (e Entry) MarshalYAML() (any, error) {
	return e.fields(), nil
}

func (e *Entry) UnmarshalYAML(unmarshal func(any) error) error {
	var m map[string]any
	if err := unmarshal(&m); err != nil {
		return err
	}
	return e.setFields(m)
}

// MarshalJSON renders cs as an indented JSON document.
func MarshalJSON(cs *changeset.ChangeSet) ([]byte, error) {
	return json.MarshalIndent(ToDocument(cs), "", "  ")
}

func UnmarshalJSON(d []byte) (*changeset.ChangeSet, error) {
	var doc Document
	if err := json.Unmarshal(d, &doc); err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// MarshalYAML renders cs as a YAML document.
func MarshalYAML(cs *changeset.ChangeSet) ([]byte, error) {
	return yaml.Marshal(ToDocument(cs))
}

func UnmarshalYAML(d []byte) (*changeset.ChangeSet, error) {
	var doc Document
	if err := yaml.Unmarshal(d, &doc); err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

package core

import (
	"fmt"
	"sort"
	"strings"
)

type (
	// Field describes a writable attribute of an entity: its JSON name and its DB column.
	Field struct {
		Name   string
		Column string
	}

	// FieldSet is the static list of writable fields of an entity.
	FieldSet []Field

	// Changes maps field names to their new values.
	Changes map[string]interface{}
)

func (fs FieldSet) Lookup(name string) (Field, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Whitelist keeps only the changes targeting a known field.
func (fs FieldSet) Whitelist(changes Changes) Changes {
	clean := make(Changes, len(changes))
	for name, val := range changes {
		if _, ok := fs.Lookup(name); ok {
			clean[name] = val
		}
	}
	return clean
}

// SetClause builds a "col1 = $n, col2 = $n+1" clause from the whitelisted changes, in field order.
// Placeholders start at $start. The matching args are returned in the same order.
func (fs FieldSet) SetClause(changes Changes, start int) (string, []interface{}) {
	changes = fs.Whitelist(changes)
	sets := make([]string, 0, len(changes))
	args := make([]interface{}, 0, len(changes))
	for _, f := range fs {
		val, ok := changes[f.Name]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", f.Column, start+len(args)))
		args = append(args, val)
	}
	return strings.Join(sets, ", "), args
}

// Names returns the sorted names of the changed fields.
func (ch Changes) Names() []string {
	names := make([]string, 0, len(ch))
	for name := range ch {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package permission defines the closed set of capabilities and roles a
// session can hold, and the gate that evaluates them
package permission

import (
	"slices"
	"strings"
)

type Permission string

const (
	Upload Permission = "upload"
	Delete Permission = "delete"
	View   Permission = "visualizar"
	Share  Permission = "compartilhar"
)

// All is the permission vocabulary in its canonical order
var All = []Permission{Share, Delete, Upload, View}

func (p Permission) Valid() bool {
	return slices.Contains(All, p)
}

type Role string

const (
	Admin  Role = "admin"
	Editor Role = "editor"
	Viewer Role = "viewer"
)

var Roles = []Role{Admin, Editor, Viewer}

func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// CanEdit reports whether the role may change the bucket layout
func (r Role) CanEdit() bool {
	return r == Admin || r == Editor
}

type Status string

const (
	Active  Status = "active"
	Invited Status = "invited"
	Blocked Status = "blocked"
)

var Statuses = []Status{Active, Invited, Blocked}

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Normalize drops unknown and duplicated values and returns the rest sorted.
// Surrounding whitespace is ignored.
func Normalize(in []string) []Permission {
	out := make([]Permission, 0, len(in))

	for _, v := range in {
		p := Permission(strings.TrimSpace(v))
		if !p.Valid() || slices.Contains(out, p) {
			continue
		}

		out = append(out, p)
	}

	slices.Sort(out)
	return out
}

// Parse accepts either a comma separated string or a list of strings
func Parse(v any) []Permission {
	switch t := v.(type) {
	case string:
		return Normalize(strings.Split(t, ","))
	case []string:
		return Normalize(t)
	case []any:
		s := make([]string, 0, len(t))
		for _, item := range t {
			if str, ok := item.(string); ok {
				s = append(s, str)
			}
		}
		return Normalize(s)
	default:
		return []Permission{}
	}
}

func Strings(p []Permission) []string {
	out := make([]string, len(p))
	for i, v := range p {
		out[i] = string(v)
	}

	return out
}

package permission

import "slices"

type Mode string

const (
	ModeAll Mode = "all"
	ModeAny Mode = "any"
)

type Result struct {
	Allowed bool         `json:"allowed"`
	Missing []Permission `json:"missing"`
}

// Evaluate checks the required permissions against the granted ones. An empty
// required set is always allowed. In ModeAny nothing is reported missing once
// a single required permission is granted.
func Evaluate(granted, required []Permission, mode Mode) Result {
	required = dedupe(required)
	if len(required) == 0 {
		return Result{Allowed: true, Missing: []Permission{}}
	}

	missing := make([]Permission, 0, len(required))
	for _, p := range required {
		if !slices.Contains(granted, p) {
			missing = append(missing, p)
		}
	}

	if mode == ModeAny {
		if len(missing) < len(required) {
			return Result{Allowed: true, Missing: []Permission{}}
		}

		return Result{Allowed: false, Missing: missing}
	}

	return Result{Allowed: len(missing) == 0, Missing: missing}
}

func dedupe(in []Permission) []Permission {
	out := make([]Permission, 0, len(in))
	for _, p := range in {
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}

	return out
}

// Capability is something the client may render as an action, together
// with the permissions it needs
type Capability struct {
	Name     string
	Required []Permission
	Mode     Mode
}

var Capabilities = []Capability{
	{Name: "upload", Required: []Permission{Upload}, Mode: ModeAll},
	{Name: "delete", Required: []Permission{Delete}, Mode: ModeAll},
	{Name: "view", Required: []Permission{View}, Mode: ModeAll},
	{Name: "share", Required: []Permission{Share, View}, Mode: ModeAll},
}

// Describe evaluates every known capability. Denied capabilities are kept in
// the result so clients can show them disabled instead of hiding them.
func Describe(granted []Permission) map[string]Result {
	out := make(map[string]Result, len(Capabilities))
	for _, c := range Capabilities {
		out[c.Name] = Evaluate(granted, c.Required, c.Mode)
	}

	return out
}

package entity

import "slices"

// Actor identifies who performs an operation and what they may do.
type Actor struct {
	ID           string
	Capabilities []string
	Origin       string // Network address the call came from.
}

// SystemActor is used by scheduled jobs and CLI tools.
var SystemActor = Actor{ID: "system", Capabilities: []string{"*"}}

// Can reports whether the actor holds capability. "*" grants everything.
func (a Actor) Can(capability string) bool {
	return slices.Contains(a.Capabilities, "*") || slices.Contains(a.Capabilities, capability)
}

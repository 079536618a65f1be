package entity

import "time"

// AttributeGroup is optional decoration for a group key referenced by definitions.
type AttributeGroup struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Icon        string    `json:"icon,omitempty"`
	Description string    `json:"description,omitempty"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultGroup is used when a definition does not name a group.
const DefaultGroup = "general"

package model

import (
	"fmt"
	"strings"
)

// ResourceType identifies the kind of schedulable entity.
type ResourceType int

const (
	ResourceClient ResourceType = iota + 1
	ResourceSpecialist
	ResourceEquipment
)

// String returns the canonical name of the resource type.
func (t ResourceType) String() string {
	switch t {
	case ResourceClient:
		return "Client"
	case ResourceSpecialist:
		return "Specialist"
	case ResourceEquipment:
		return "Equipment"
	default:
		return "unknown"
	}
}

// ParseResourceType converts a name into a ResourceType.
func ParseResourceType(s string) (ResourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client":
		return ResourceClient, nil
	case "specialist", "facilitator", "allied_health":
		return ResourceSpecialist, nil
	case "equipment":
		return ResourceEquipment, nil
	}
	return 0, fmt.Errorf("unknown resource type %q", s)
}

// MarshalText implements encoding.TextMarshaler. An unset type encodes as "".
func (t ResourceType) MarshalText() ([]byte, error) {
	if t == 0 {
		return nil, nil
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ResourceType) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*t = 0
		return nil
	}
	v, err := ParseResourceType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ResourceAvailability is the free-time calendar of one resource.
// Days maps a "YYYY-MM-DD" date to the free intervals of that day.
type ResourceAvailability struct {
	ID   string                `json:"id" yaml:"id"`
	Type ResourceType          `json:"type" yaml:"type"`
	Days map[string][]Interval `json:"days" yaml:"days"`
}

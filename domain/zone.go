package domain

import "strings"

const zoneSeparator = "#"

// Zone is a subsystem optionally suffixed with a deployment tag, written "subsystem" or "subsystem#tag".
// Two copies of the same service deployed side by side (blue/green) share the subsystem and differ in tag.
type Zone struct {
	Subsystem string
	Tag       string
}

// ParseZone parses "subsystem" or "subsystem#tag". Only the first separator splits.
func ParseZone(s string) Zone {
	subsystem, tag, _ := strings.Cut(s, zoneSeparator)
	return Zone{Subsystem: subsystem, Tag: tag}
}

// IsTagged reports whether the zone belongs to a tagged deployment.
func (z Zone) IsTagged() bool {
	return z.Tag != ""
}

func (z Zone) String() string {
	if z.Tag == "" {
		return z.Subsystem
	}
	return z.Subsystem + zoneSeparator + z.Tag
}

package domain

import (
	"strings"
	"time"
)

// Subject is the aggregate root: sections and topics are only ever
// changed through it and every mutation returns the whole tree.
type Subject struct {
	ID       string
	UserID   string
	Name     string
	Color    string
	Sections []Section
}

type Section struct {
	ID     string
	Name   string
	Topics []Topic
}

type Topic struct {
	ID        string
	Name      string
	Notes     string
	CreatedAt time.Time
}

// Palette is the fixed set of display colours offered when creating or
// recolouring a subject.
var Palette = []string{
	"#3b82f6",
	"#10b981",
	"#f59e0b",
	"#ef4444",
	"#8b5cf6",
	"#ec4899",
	"#14b8a6",
	"#64748b",
}

// NextColor returns the palette entry after current, wrapping around.
// Colours outside the palette restart at the first entry.
func NextColor(current string) string {
	for i, c := range Palette {
		if strings.EqualFold(c, current) {
			return Palette[(i+1)%len(Palette)]
		}
	}
	return Palette[0]
}

func (s Subject) TopicCount() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.Topics)
	}
	return n
}

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRoomNotFound is returned when a room is not part of the catalogue
var ErrRoomNotFound = errors.New("room not found")

// FreeBusyType marks an interval as occupied or available
type FreeBusyType string

const (
	FreeBusyFree FreeBusyType = "FREE"
	FreeBusyBusy FreeBusyType = "BUSY"
)

// ParseFreeBusyType maps an iCalendar FBTYPE value onto FREE or BUSY.
// An empty value means BUSY, as do the tentative and unavailable variants.
func ParseFreeBusyType(fbtype string) FreeBusyType {
	if strings.EqualFold(strings.TrimSpace(fbtype), string(FreeBusyFree)) {
		return FreeBusyFree
	}
	return FreeBusyBusy
}

// FreeBusyInterval is one block of a room's free/busy feed
type FreeBusyInterval struct {
	Start time.Time    `json:"start"`
	End   time.Time    `json:"end"`
	Type  FreeBusyType `json:"type"`
}

// Validate checks that the interval is not empty or inverted
func (fb FreeBusyInterval) Validate() error {
	if !fb.Start.Before(fb.End) {
		return fmt.Errorf("interval start %s is not before end %s", fb.Start.Format(time.RFC3339), fb.End.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls strictly inside the interval
func (fb FreeBusyInterval) Contains(t time.Time) bool {
	return t.After(fb.Start) && t.Before(fb.End)
}

// Room represents a physical meeting room and its latest free/busy list
type Room struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	Classname            string             `json:"classname"`
	Neighborhood         string             `json:"neighborhood"`
	Size                 string             `json:"size"`
	HasVideoConferencing bool               `json:"hasVideoConferencing"`
	FreeBusy             []FreeBusyInterval `json:"freebusy"`
}

// Clone returns a copy whose interval list can be modified independently
func (r *Room) Clone() *Room {
	c := *r
	c.FreeBusy = CopyIntervals(r.FreeBusy)
	return &c
}

// CopyIntervals copies an interval list, never returning nil
func CopyIntervals(intervals []FreeBusyInterval) []FreeBusyInterval {
	out := make([]FreeBusyInterval, len(intervals))
	copy(out, intervals)
	return out
}

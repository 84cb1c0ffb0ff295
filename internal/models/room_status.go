package models

import "time"

// RoomStatus is a room together with its classification at a point in time
type RoomStatus struct {
	*Room
	IsFree       bool      `json:"isFree"`
	IsAlmostFree bool      `json:"isAlmostFree"`
	IsReallyBusy bool      `json:"isReallyBusy"`
	Label        string    `json:"label"`
	ClassifiedAt time.Time `json:"classifiedAt"`
}

// CSSClasses returns the board's state flags; more than one may be set
func (s RoomStatus) CSSClasses() []string {
	var classes []string
	if s.IsFree {
		classes = append(classes, "free")
	}
	if s.IsAlmostFree {
		classes = append(classes, "almostFree")
	}
	if s.IsReallyBusy {
		classes = append(classes, "reallyBusy")
	}
	return classes
}

// RoomSyncStatus tracks the outcome of the latest feed fetches for a room
type RoomSyncStatus struct {
	RoomID        string    `json:"roomId"`
	LastAttempt   time.Time `json:"lastAttempt,omitempty"`
	LastSuccess   time.Time `json:"lastSuccess,omitempty"`
	LastError     string    `json:"lastError,omitempty"`
	IntervalCount int       `json:"intervalCount"`
}

// Healthy reports whether the room has synced and the most recent attempt succeeded
func (s RoomSyncStatus) Healthy() bool {
	return !s.LastSuccess.IsZero() && s.LastError == ""
}

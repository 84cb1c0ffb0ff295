// Package availability turns a room's free/busy intervals into the status
// flags and label shown on the board. Every function here is pure: the same
// room and instant always give the same answer.
package availability

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/navikt/roomstatus/internal/models"
)

// DefaultFuzz is the margin used to surface "about to change" states early
const DefaultFuzz = 15 * time.Minute

// absoluteAfter is the distance beyond which labels switch to a clock time
const absoluteAfter = time.Hour

// Classifier evaluates the status predicates with a fixed fuzz window
type Classifier struct {
	Fuzz time.Duration
	// Location is used when rendering clock times; nil means the instant's own zone
	Location *time.Location
}

// New returns a classifier with the given fuzz window and display location
func New(fuzz time.Duration, loc *time.Location) Classifier {
	return Classifier{Fuzz: fuzz, Location: loc}
}

// IsFree reports whether no interval makes the room unavailable at now.
// Each interval must either be a FREE block whose fuzzed window covers now,
// or not contain now at all. A room with no intervals is free.
func (c Classifier) IsFree(room *models.Room, now time.Time) bool {
	for _, fb := range room.FreeBusy {
		freeNow := fb.Type == models.FreeBusyFree &&
			now.After(fb.Start.Add(-c.Fuzz)) && now.Before(fb.End)
		if !freeNow && fb.Contains(now) {
			return false
		}
	}
	return true
}

// IsAlmostFree reports whether some interval ends within the fuzz window
func (c Classifier) IsAlmostFree(room *models.Room, now time.Time) bool {
	for _, fb := range room.FreeBusy {
		if now.Before(fb.End) && now.After(fb.End.Add(-c.Fuzz)) {
			return true
		}
	}
	return false
}

// IsReallyBusy reports whether now is inside some interval and outside its ending fuzz window
func (c Classifier) IsReallyBusy(room *models.Room, now time.Time) bool {
	for _, fb := range room.FreeBusy {
		if now.After(fb.Start) && now.Before(fb.End.Add(-c.Fuzz)) {
			return true
		}
	}
	return false
}

// IsBusy reports whether a BUSY interval is in progress or starts within the fuzz window.
// This backs the busy listing of the JSON API.
func (c Classifier) IsBusy(room *models.Room, now time.Time) bool {
	for _, fb := range room.FreeBusy {
		if fb.Type == models.FreeBusyBusy && now.After(fb.Start.Add(-c.Fuzz)) && now.Before(fb.End) {
			return true
		}
	}
	return false
}

// Label describes the room's next transition, e.g. "free in 5m" or "busy at 2:00pm".
//
// The first interval in list order that has not ended is used. When now is inside
// it the label reads "free", otherwise "busy". The interval type is not consulted.
func (c Classifier) Label(room *models.Room, now time.Time) string {
	for _, fb := range room.FreeBusy {
		if !now.Before(fb.End) {
			continue
		}
		if fb.Contains(now) {
			return "free " + c.RelativeOrAbsolute(fb.End, now)
		}
		return "busy " + c.RelativeOrAbsolute(fb.End, now)
	}
	return "free"
}

// RelativeOrAbsolute renders ts as a clock time when it is more than an hour
// after now ("at 2:00pm"), and as a compact relative phrase otherwise ("in 5m").
func (c Classifier) RelativeOrAbsolute(ts, now time.Time) string {
	if ts.Sub(now) > absoluteAfter {
		if c.Location != nil {
			ts = ts.In(c.Location)
		}
		return "at " + ts.Format("3:04pm")
	}
	return Relative(ts, now)
}

// Classify evaluates every predicate and the label at once
func (c Classifier) Classify(room *models.Room, now time.Time) models.RoomStatus {
	return models.RoomStatus{
		Room:         room,
		IsFree:       c.IsFree(room, now),
		IsAlmostFree: c.IsAlmostFree(room, now),
		IsReallyBusy: c.IsReallyBusy(room, now),
		Label:        c.Label(room, now),
		ClassifiedAt: now,
	}
}

var futureMagnitudes = []humanize.RelTimeMagnitude{
	{D: 45 * time.Second, Format: "in a jiff", DivBy: time.Second},
	{D: 90 * time.Second, Format: "in 1m", DivBy: time.Second},
	{D: 45 * time.Minute, Format: "in %dm", DivBy: time.Minute},
	{D: 90 * time.Minute, Format: "in 1h", DivBy: time.Second},
	{D: 22 * time.Hour, Format: "in %dh", DivBy: time.Hour},
	{D: 36 * time.Hour, Format: "in a day", DivBy: time.Second},
	{D: 26 * humanize.Day, Format: "in %d days", DivBy: humanize.Day},
	{D: 45 * humanize.Day, Format: "in a month", DivBy: time.Second},
	{D: 320 * humanize.Day, Format: "in %d months", DivBy: humanize.Month},
	{D: 548 * humanize.Day, Format: "in a year", DivBy: time.Second},
	{D: humanize.LongTime, Format: "in %d years", DivBy: humanize.Year},
}

var pastMagnitudes = []humanize.RelTimeMagnitude{
	{D: 45 * time.Second, Format: "a jiff ago", DivBy: time.Second},
	{D: 90 * time.Second, Format: "1m ago", DivBy: time.Second},
	{D: 45 * time.Minute, Format: "%dm ago", DivBy: time.Minute},
	{D: 90 * time.Minute, Format: "1h ago", DivBy: time.Second},
	{D: 22 * time.Hour, Format: "%dh ago", DivBy: time.Hour},
	{D: 36 * time.Hour, Format: "a day ago", DivBy: time.Second},
	{D: 26 * humanize.Day, Format: "%d days ago", DivBy: humanize.Day},
	{D: 45 * humanize.Day, Format: "a month ago", DivBy: time.Second},
	{D: 320 * humanize.Day, Format: "%d months ago", DivBy: humanize.Month},
	{D: 548 * humanize.Day, Format: "a year ago", DivBy: time.Second},
	{D: humanize.LongTime, Format: "%d years ago", DivBy: humanize.Year},
}

// Relative renders the distance from now to ts with compact unit words,
// "in 5m" for the future and "5m ago" for the past. Counts are rounded to
// the nearest unit, so 4m40s reads "in 5m" and 44m50s reads "in 1h".
func Relative(ts, now time.Time) string {
	diff := ts.Sub(now)
	if diff < 0 {
		diff = -roundRelative(-diff)
		return humanize.CustomRelTime(now.Add(diff), now, "", "", pastMagnitudes)
	}
	diff = roundRelative(diff)
	return humanize.CustomRelTime(now.Add(diff), now, "", "", futureMagnitudes)
}

// roundRelative rounds a positive distance to the unit its magnitude prints.
func roundRelative(d time.Duration) time.Duration {
	switch {
	case d < 45*time.Second:
		return d
	case d < 45*time.Minute:
		return d.Round(time.Minute)
	case d < 22*time.Hour:
		return d.Round(time.Hour)
	case d < 45*humanize.Day:
		return d.Round(humanize.Day)
	case d < 320*humanize.Day:
		return d.Round(humanize.Month)
	default:
		return d.Round(humanize.Year)
	}
}

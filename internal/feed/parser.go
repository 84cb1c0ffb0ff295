package feed

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/navikt/roomstatus/internal/models"
)

const (
	componentFreeBusy = "VFREEBUSY"
	propFreeBusy      = "FREEBUSY"
	paramFreeBusyType = "FBTYPE"
)

// ParseFreeBusy decodes an iCalendar free/busy document and returns the
// intervals relevant to the day containing now, sorted by start time.
//
// Only VFREEBUSY components are read. A document without one yields an empty
// list, which callers treat as "free all day". Days are computed in loc.
func ParseFreeBusy(r io.Reader, now time.Time, loc *time.Location) ([]models.FreeBusyInterval, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []models.FreeBusyInterval{}, nil
		}
		return nil, fmt.Errorf("decode calendar: %w", err)
	}

	if loc == nil {
		loc = now.Location()
	}

	intervals := []models.FreeBusyInterval{}
	for _, comp := range cal.Children {
		if comp.Name != componentFreeBusy {
			continue
		}
		for _, prop := range comp.Props[propFreeBusy] {
			periods, err := parsePeriods(prop)
			if err != nil {
				return nil, err
			}
			for _, fb := range periods {
				if fb.Validate() != nil {
					continue
				}
				if isToday(fb, now, loc) {
					intervals = append(intervals, fb)
				}
			}
		}
	}

	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})
	return intervals, nil
}

// parsePeriods expands one FREEBUSY property. Its value is a comma separated
// list of periods, each either start/end or start/duration.
func parsePeriods(prop ical.Prop) ([]models.FreeBusyInterval, error) {
	var fbtype string
	if values := prop.Params[paramFreeBusyType]; len(values) > 0 {
		fbtype = values[0]
	}
	typ := models.ParseFreeBusyType(fbtype)

	var out []models.FreeBusyInterval
	for _, period := range strings.Split(prop.Value, ",") {
		period = strings.TrimSpace(period)
		if period == "" {
			continue
		}
		startValue, endValue, ok := strings.Cut(period, "/")
		if !ok {
			return nil, fmt.Errorf("malformed free/busy period %q", period)
		}

		start, err := parseDateTime(startValue)
		if err != nil {
			return nil, fmt.Errorf("free/busy period %q: %w", period, err)
		}

		var end time.Time
		if strings.HasPrefix(strings.TrimLeft(endValue, "+-"), "P") {
			dur := ical.NewProp(ical.PropDuration)
			dur.Value = endValue
			d, err := dur.Duration()
			if err != nil {
				return nil, fmt.Errorf("free/busy period %q: %w", period, err)
			}
			end = start.Add(d)
		} else if end, err = parseDateTime(endValue); err != nil {
			return nil, fmt.Errorf("free/busy period %q: %w", period, err)
		}

		out = append(out, models.FreeBusyInterval{Start: start, End: end, Type: typ})
	}
	return out, nil
}

// parseDateTime reads a period boundary. Free/busy times are always UTC.
func parseDateTime(value string) (time.Time, error) {
	prop := ical.NewProp(ical.PropDateTimeStart)
	prop.Value = value
	return prop.DateTime(time.UTC)
}

// isToday keeps intervals touching the calendar day of now, or containing now
func isToday(fb models.FreeBusyInterval, now time.Time, loc *time.Location) bool {
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	startsToday := !fb.Start.Before(dayStart) && fb.Start.Before(dayEnd)
	endsToday := !fb.End.Before(dayStart) && fb.End.Before(dayEnd)
	overlaps := fb.Start.Before(dayEnd) && fb.End.After(dayStart)

	return startsToday || endsToday || overlaps || fb.Contains(now)
}

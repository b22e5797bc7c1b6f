package service

import (
	"bytes"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"calsync/core/constants"
	"calsync/core/logger"
)

// feedEntry is one VEVENT as parsed from a subscription document, before
// recurrence expansion.
type feedEntry struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	RawRRule    string
	ExDates     []time.Time
}

// maximum occurrences emitted per recurring event inside one window
const maxOccurrencesPerEvent = 1000

// parseFeed parses an ICS document into feed entries. A malformed VEVENT is
// skipped; the rest of the document still parses.
func parseFeed(body []byte) ([]feedEntry, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	entries := make([]feedEntry, 0)
	for _, ve := range cal.Events() {
		entry, ok := parseVEvent(ve)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseVEvent(ve *ical.VEvent) (feedEntry, bool) {
	var entry feedEntry

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return entry, false
	}
	entry.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		entry.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		entry.Description = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return entry, false
	}
	entry.Start = start
	if end, err := ve.GetEndAt(); err == nil {
		entry.End = end
	}

	// All-day when DTSTART carries VALUE=DATE or a date-only value.
	if dtStart := ve.GetProperty(ical.ComponentPropertyDtStart); dtStart != nil {
		if params := dtStart.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				entry.AllDay = true
			}
		}
		if !strings.Contains(dtStart.Value, "T") {
			entry.AllDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		entry.RawRRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part)); err == nil {
				entry.ExDates = append(entry.ExDates, t)
			}
		}
	}

	return entry, true
}

func parseICSTime(v string) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}

// expandEntry yields the concrete occurrences of one entry inside
// [windowStart, windowEnd]. Non-recurring entries yield at most one.
func expandEntry(entry feedEntry, windowStart, windowEnd time.Time) []occurrence {
	if entry.RawRRule == "" {
		if !rangesOverlap(entry.Start, entryEnd(entry), windowStart, windowEnd) {
			return nil
		}
		return []occurrence{{Start: entry.Start, End: entryEnd(entry)}}
	}

	rule, err := rrule.StrToRRule(entry.RawRRule)
	if err != nil {
		logger.Warn("Feed:ExpandEntry:BadRRule", "uid", entry.UID, "rrule", entry.RawRRule, "error", err)
		return nil
	}
	rule.DTStart(entry.Start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range entry.ExDates {
		set.ExDate(ex.In(entry.Start.Location()))
	}

	starts := set.Between(windowStart.In(entry.Start.Location()), windowEnd.In(entry.Start.Location()), true)
	if len(starts) > maxOccurrencesPerEvent {
		starts = starts[:maxOccurrencesPerEvent]
	}

	duration := entryEnd(entry).Sub(entry.Start)
	out := make([]occurrence, 0, len(starts))
	for _, start := range starts {
		if entry.AllDay {
			day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			out = append(out, occurrence{Start: day, End: day.AddDate(0, 0, 1)})
			continue
		}
		out = append(out, occurrence{Start: start, End: start.Add(duration)})
	}
	return out
}

type occurrence struct {
	Start time.Time
	End   time.Time
}

func entryEnd(entry feedEntry) time.Time {
	if !entry.End.IsZero() {
		return entry.End
	}
	if entry.AllDay {
		return entry.Start.AddDate(0, 0, 1)
	}
	return entry.Start.Add(constants.DefaultEventDuration)
}

func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}

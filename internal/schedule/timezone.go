package schedule

import (
	"time"
	// Embed the IANA database so zone lookups work even without a system
	// zoneinfo directory (scratch containers, Windows hosts).
	_ "time/tzdata"
)

// commonZones is the fallback list offered to schedule editors when the
// runtime cannot enumerate the full IANA database.
var commonZones = []string{
	"UTC",
	"America/New_York",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
	"America/Anchorage",
	"Pacific/Honolulu",
	"America/Toronto",
	"America/Mexico_City",
	"America/Sao_Paulo",
	"Europe/London",
	"Europe/Paris",
	"Europe/Berlin",
	"Europe/Madrid",
	"Europe/Warsaw",
	"Europe/Moscow",
	"Africa/Cairo",
	"Africa/Johannesburg",
	"Asia/Dubai",
	"Asia/Kolkata",
	"Asia/Shanghai",
	"Asia/Singapore",
	"Asia/Tokyo",
	"Asia/Seoul",
	"Australia/Sydney",
	"Pacific/Auckland",
}

// SupportedTimezones returns the zone names offered in schedule editors.
// The host's own zone is appended when it resolves to a named zone outside
// the list.
func SupportedTimezones() []string {
	zones := make([]string, len(commonZones))
	copy(zones, commonZones)
	name := time.Local.String()
	if name == "Local" || name == "UTC" {
		return zones
	}
	for _, z := range zones {
		if z == name {
			return zones
		}
	}
	return append(zones, name)
}

// LoadZone resolves an IANA zone name. Unknown names are an error; callers
// must never fall back to the host's local zone on their own.
func LoadZone(tz string) (*time.Location, error) {
	if tz == "" {
		return nil, invalidf("timezone", "required")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, invalidf("timezone", "unknown zone %q", tz)
	}
	return loc, nil
}

// ToInstant interprets date ("YYYY-MM-DD") and clock ("HH:MM") as a wall
// clock in tz on that calendar date and returns the equivalent UTC instant,
// applying whatever UTC offset tz has on that date.
//
// A wall clock inside a spring-forward gap has no unique mapping; it is
// shifted past the gap by applying the pre-transition offset, so 02:30 in a
// 02:00->03:00 gap lands on 03:30. A repeated fall-back hour resolves to its
// first occurrence.
func ToInstant(date, clock, tz string) (time.Time, error) {
	y, mo, d, err := parseDate("date", date)
	if err != nil {
		return time.Time{}, err
	}
	h, mi, err := parseClock("time", clock)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := LoadZone(tz)
	if err != nil {
		return time.Time{}, err
	}
	return instantAt(y, mo, d, h, mi, 0, loc), nil
}

func instantAt(y int, mo time.Month, d, h, mi, s int, loc *time.Location) time.Time {
	t := time.Date(y, mo, d, h, mi, s, 0, loc)
	if t.Hour() != h || t.Minute() != mi {
		// Nonexistent wall clock (DST gap). Measure elapsed time from the
		// day's start under the pre-transition offset instead.
		start := time.Date(y, mo, d, 0, 0, 0, 0, loc)
		t = start.Add(time.Duration(h)*time.Hour +
			time.Duration(mi)*time.Minute +
			time.Duration(s)*time.Second)
	}
	return t.UTC()
}

func parseDate(field, date string) (int, time.Month, int, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, 0, 0, invalidf(field, "want YYYY-MM-DD, got %q", date)
	}
	y, mo, d := t.Date()
	return y, mo, d, nil
}

func parseClock(field, clock string) (int, int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, 0, invalidf(field, "want HH:MM, got %q", clock)
	}
	return t.Hour(), t.Minute(), nil
}

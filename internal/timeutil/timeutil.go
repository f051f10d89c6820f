// Package timeutil centralizes the notion of "now" for a user in an arbitrary
// timezone and the validity rules for time segments and clock ranges. Keeping
// these pure functions in one place keeps the temporal reasoning of every tool
// consistent and testable.
package timeutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Segment names, ordered from earliest to latest part of the day.
// SegmentAllDay sits outside the ordering.
const (
	SegmentAllDay       = "all_day"
	SegmentEarlyMorning = "early_morning"
	SegmentMorning      = "morning"
	SegmentForenoon     = "forenoon"
	SegmentNoon         = "noon"
	SegmentAfternoon    = "afternoon"
	SegmentEvening      = "evening"
)

// segmentOrder gives the total ordering used for "is segment X earlier than
// the current segment" comparisons. all_day is intentionally absent.
var segmentOrder = map[string]int{
	SegmentEarlyMorning: 0,
	SegmentMorning:      1,
	SegmentForenoon:     2,
	SegmentNoon:         3,
	SegmentAfternoon:    4,
	SegmentEvening:      5,
}

// DateLayout is the wire format for task due dates.
const DateLayout = "2006-01-02"

// ValidSegment reports whether s is a known time segment (including all_day).
func ValidSegment(s string) bool {
	if s == SegmentAllDay {
		return true
	}
	_, ok := segmentOrder[s]
	return ok
}

// SegmentRank returns the position of a segment in the day ordering and
// whether the segment participates in the ordering at all.
func SegmentRank(s string) (int, bool) {
	r, ok := segmentOrder[s]
	return r, ok
}

// UserNow returns the current instant shifted to the user's wall-clock view.
//
// tzOffsetMinutes follows the JavaScript Date.getTimezoneOffset convention:
// it is the number of minutes to SUBTRACT from UTC now to obtain user-local
// time (UTC+8 is -480, not +480). The returned time is therefore only
// meaningful for reading wall-clock fields (hour, date); it is not a real
// instant in any named location.
func UserNow(tzOffsetMinutes int) time.Time {
	return userNowAt(time.Now(), tzOffsetMinutes)
}

func userNowAt(now time.Time, tzOffsetMinutes int) time.Time {
	return now.UTC().Add(-time.Duration(tzOffsetMinutes) * time.Minute)
}

// TodayDate returns today's date under the user's clock as YYYY-MM-DD.
func TodayDate(tzOffsetMinutes int) string {
	return UserNow(tzOffsetMinutes).Format(DateLayout)
}

func todayDateAt(now time.Time, tzOffsetMinutes int) string {
	return userNowAt(now, tzOffsetMinutes).Format(DateLayout)
}

// WeekdayLabel returns the Chinese weekday label for the user's today.
func WeekdayLabel(tzOffsetMinutes int) string {
	labels := []string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}
	return labels[int(UserNow(tzOffsetMinutes).Weekday())]
}

// CurrentTimeSegment maps the user's current hour of day onto the segment
// ordering: early_morning [0,6), morning [6,9), forenoon [9,12), noon [12,14),
// afternoon [14,18), evening [18,24).
func CurrentTimeSegment(tzOffsetMinutes int) string {
	return segmentForHour(UserNow(tzOffsetMinutes).Hour())
}

func currentTimeSegmentAt(now time.Time, tzOffsetMinutes int) string {
	return segmentForHour(userNowAt(now, tzOffsetMinutes).Hour())
}

func segmentForHour(hour int) string {
	switch {
	case hour < 6:
		return SegmentEarlyMorning
	case hour < 9:
		return SegmentMorning
	case hour < 12:
		return SegmentForenoon
	case hour < 14:
		return SegmentNoon
	case hour < 18:
		return SegmentAfternoon
	default:
		return SegmentEvening
	}
}

// IsSegmentAllowedForToday reports whether a task may still be scheduled into
// segment on dateStr. Dates other than the user's today are always allowed.
// For today, all_day is refused once the current segment is evening, and any
// other segment must not be earlier than the current one.
func IsSegmentAllowedForToday(dateStr, segment string, tzOffsetMinutes int) bool {
	return segmentAllowedAt(time.Now(), dateStr, segment, tzOffsetMinutes)
}

func segmentAllowedAt(now time.Time, dateStr, segment string, tzOffsetMinutes int) bool {
	if dateStr != todayDateAt(now, tzOffsetMinutes) {
		return true
	}
	current := currentTimeSegmentAt(now, tzOffsetMinutes)
	if segment == SegmentAllDay {
		return current != SegmentEvening
	}
	segRank, ok := segmentOrder[segment]
	if !ok {
		return true
	}
	return segRank >= segmentOrder[current]
}

// IsTimeRangePassedForToday reports whether an explicit HH:MM range on
// dateStr already lies fully in the past. Only the user's today can be
// "passed". Malformed or inverted ranges (end before start) are treated as
// not passed; overnight ranges would otherwise be unschedulable.
func IsTimeRangePassedForToday(dateStr, startTime, endTime string, tzOffsetMinutes int) bool {
	return timeRangePassedAt(time.Now(), dateStr, startTime, endTime, tzOffsetMinutes)
}

func timeRangePassedAt(now time.Time, dateStr, startTime, endTime string, tzOffsetMinutes int) bool {
	if dateStr != todayDateAt(now, tzOffsetMinutes) {
		return false
	}
	startMin, okStart := ParseClockMinutes(startTime)
	endMin, okEnd := ParseClockMinutes(endTime)
	if !okStart || !okEnd || endMin < startMin {
		return false
	}
	userNow := userNowAt(now, tzOffsetMinutes)
	return endMin <= userNow.Hour()*60+userNow.Minute()
}

// DefaultTimeSegmentForDate picks the segment used when the user gave no time
// information: evening if the date is today and it is already evening, else
// all_day.
func DefaultTimeSegmentForDate(dateStr string, tzOffsetMinutes int) string {
	return defaultSegmentAt(time.Now(), dateStr, tzOffsetMinutes)
}

func defaultSegmentAt(now time.Time, dateStr string, tzOffsetMinutes int) string {
	if dateStr == todayDateAt(now, tzOffsetMinutes) && currentTimeSegmentAt(now, tzOffsetMinutes) == SegmentEvening {
		return SegmentEvening
	}
	return SegmentAllDay
}

// ParseClockMinutes parses "HH:MM" into minutes since midnight.
func ParseClockMinutes(clock string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(clock), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// Text-inference helpers. These scan raw user text for temporal keywords and
// act as supplementary validation signals only; the LLM remains the primary
// natural-language parser.

var segmentHints = []struct {
	keywords []string
	segment  string
}{
	{[]string{"凌晨", "半夜"}, SegmentEarlyMorning},
	{[]string{"早上", "早晨", "清晨"}, SegmentMorning},
	{[]string{"上午"}, SegmentForenoon},
	{[]string{"中午", "午饭", "午餐"}, SegmentNoon},
	{[]string{"下午", "午后"}, SegmentAfternoon},
	{[]string{"晚上", "傍晚", "夜里", "今晚"}, SegmentEvening},
}

var (
	explicitTimeRe = regexp.MustCompile(`([01]?\d|2[0-3])[:：点]([0-5]\d)?`)
	dateHintRe     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{1,2}月\d{1,2}[日号]`)
	dateWords      = []string{"今天", "明天", "后天", "大后天", "周一", "周二", "周三", "周四", "周五", "周六", "周日", "下周", "这周", "本周", "周末"}
)

// InferTimeSegmentFromText returns the first segment hinted at by the text,
// or empty string when no hint is present.
func InferTimeSegmentFromText(text string) string {
	for _, h := range segmentHints {
		for _, kw := range h.keywords {
			if strings.Contains(text, kw) {
				return h.segment
			}
		}
	}
	return ""
}

// HasTimeSegmentHint reports whether the text mentions a part of the day.
func HasTimeSegmentHint(text string) bool {
	return InferTimeSegmentFromText(text) != ""
}

// HasExplicitTimeRange reports whether the text contains a clock time such as
// "14:30" or "3点".
func HasExplicitTimeRange(text string) bool {
	return explicitTimeRe.MatchString(text)
}

// HasDateHint reports whether the text mentions a calendar date or a relative
// date word.
func HasDateHint(text string) bool {
	if dateHintRe.MatchString(text) {
		return true
	}
	for _, w := range dateWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

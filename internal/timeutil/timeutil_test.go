package timeutil

import (
	"testing"
	"time"
)

// fixed UTC instant: 2025-03-10 12:00 UTC. With offset -480 (UTC+8) the user
// clock reads 2025-03-10 20:00; with offset 0 it reads 12:00.
var noonUTC = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestSegmentForHour(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, SegmentEarlyMorning},
		{5, SegmentEarlyMorning},
		{6, SegmentMorning},
		{8, SegmentMorning},
		{9, SegmentForenoon},
		{11, SegmentForenoon},
		{12, SegmentNoon},
		{13, SegmentNoon},
		{14, SegmentAfternoon},
		{17, SegmentAfternoon},
		{18, SegmentEvening},
		{23, SegmentEvening},
	}
	for _, tt := range tests {
		if got := segmentForHour(tt.hour); got != tt.want {
			t.Errorf("segmentForHour(%d) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestUserNowOffsetConvention(t *testing.T) {
	// offset -480 means UTC+8: subtracting -480 minutes adds 8 hours.
	got := userNowAt(noonUTC, -480)
	if got.Hour() != 20 {
		t.Fatalf("userNowAt hour = %d, want 20", got.Hour())
	}
	if todayDateAt(noonUTC, -480) != "2025-03-10" {
		t.Fatalf("todayDateAt = %s, want 2025-03-10", todayDateAt(noonUTC, -480))
	}
	// a large positive offset pushes the user clock back to the previous day.
	if d := todayDateAt(noonUTC, 780); d != "2025-03-09" {
		t.Fatalf("todayDateAt(+780) = %s, want 2025-03-09", d)
	}
}

func TestSegmentAllowedForToday(t *testing.T) {
	const tz = -480 // user clock 20:00, evening
	today := todayDateAt(noonUTC, tz)

	tests := []struct {
		name    string
		date    string
		segment string
		want    bool
	}{
		{"other day always allowed", "2099-01-01", SegmentMorning, true},
		{"all_day refused in evening", today, SegmentAllDay, false},
		{"morning refused in evening", today, SegmentMorning, false},
		{"afternoon refused in evening", today, SegmentAfternoon, false},
		{"evening allowed in evening", today, SegmentEvening, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := segmentAllowedAt(noonUTC, tt.date, tt.segment, tz); got != tt.want {
				t.Errorf("segmentAllowedAt(%s, %s) = %v, want %v", tt.date, tt.segment, got, tt.want)
			}
		})
	}
}

// If a segment is not allowed now, no earlier segment may be allowed either
// (all_day excepted, it has its own evening-only rule).
func TestSegmentOrderingMonotonicity(t *testing.T) {
	ordered := []string{SegmentEarlyMorning, SegmentMorning, SegmentForenoon, SegmentNoon, SegmentAfternoon, SegmentEvening}
	for tz := -720; tz <= 720; tz += 180 {
		today := todayDateAt(noonUTC, tz)
		blocked := false
		for i := len(ordered) - 1; i >= 0; i-- {
			allowed := segmentAllowedAt(noonUTC, today, ordered[i], tz)
			if !allowed {
				blocked = true
			} else if blocked {
				t.Fatalf("tz=%d: segment %s allowed although a later segment was blocked", tz, ordered[i])
			}
		}
	}
}

func TestTimeRangePassedForToday(t *testing.T) {
	const tz = -480 // user clock 20:00
	today := todayDateAt(noonUTC, tz)

	tests := []struct {
		name             string
		date             string
		start, end       string
		want             bool
	}{
		{"other day never passed", "2099-01-01", "08:00", "09:00", false},
		{"range fully past", today, "08:00", "09:00", true},
		{"range ending exactly now", today, "19:00", "20:00", true},
		{"range still open", today, "19:30", "21:00", false},
		{"inverted range fails open", today, "23:00", "01:00", false},
		{"malformed start fails open", today, "late", "09:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := timeRangePassedAt(noonUTC, tt.date, tt.start, tt.end, tz); got != tt.want {
				t.Errorf("timeRangePassedAt(%s, %s-%s) = %v, want %v", tt.date, tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestDefaultTimeSegmentForDate(t *testing.T) {
	eveningTZ := -480 // 20:00
	dayTZ := 0        // 12:00
	todayEvening := todayDateAt(noonUTC, eveningTZ)
	todayDay := todayDateAt(noonUTC, dayTZ)

	if got := defaultSegmentAt(noonUTC, todayEvening, eveningTZ); got != SegmentEvening {
		t.Errorf("default for today in evening = %s, want evening", got)
	}
	if got := defaultSegmentAt(noonUTC, todayDay, dayTZ); got != SegmentAllDay {
		t.Errorf("default for today at noon = %s, want all_day", got)
	}
	if got := defaultSegmentAt(noonUTC, "2099-01-01", eveningTZ); got != SegmentAllDay {
		t.Errorf("default for future date = %s, want all_day", got)
	}
}

func TestParseClockMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00", 0, true},
		{"09:30", 570, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseClockMinutes(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseClockMinutes(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTextInference(t *testing.T) {
	if got := InferTimeSegmentFromText("明天早上去取快递"); got != SegmentMorning {
		t.Errorf("InferTimeSegmentFromText = %s, want morning", got)
	}
	if got := InferTimeSegmentFromText("记得买牛奶"); got != "" {
		t.Errorf("InferTimeSegmentFromText = %s, want empty", got)
	}
	if !HasTimeSegmentHint("下午开会") {
		t.Error("HasTimeSegmentHint should detect 下午")
	}
	if !HasExplicitTimeRange("14:30 开会") {
		t.Error("HasExplicitTimeRange should detect 14:30")
	}
	if !HasExplicitTimeRange("3点开会") {
		t.Error("HasExplicitTimeRange should detect 3点")
	}
	if HasExplicitTimeRange("无时间信息") {
		t.Error("HasExplicitTimeRange false positive")
	}
	if !HasDateHint("2025-03-11 的安排") || !HasDateHint("明天的安排") || !HasDateHint("3月11号开会") {
		t.Error("HasDateHint should detect dates")
	}
	if HasDateHint("买牛奶") {
		t.Error("HasDateHint false positive")
	}
}

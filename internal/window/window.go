package window

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"rivercafe-backend/internal/models"
)

// Spec: bir sipariş penceresinin saf değerlendirme hali.
// Modelden ayrık tutulur ki üyelik testi veritabanından bağımsız test edilsin.
type Spec struct {
	Days     []int // 0=Pazar..6=Cumartesi, boş = her gün
	Start    string
	End      string
	Location *time.Location
}

// ParseClock: "HH:MM" -> gün içi dakika.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("saat formatı 'HH:MM' olmalı: %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("geçersiz saat: %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("geçersiz dakika: %q", s)
	}
	return h*60 + m, nil
}

// ParseDays: "1,2,3" -> [1 2 3]. 7 girişi 0'a (Pazar) normalize edilir.
func ParseDays(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var days []int
	for _, part := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 0 || d > 7 {
			return nil, fmt.Errorf("geçersiz gün değeri: %q", part)
		}
		if d == 7 {
			d = 0
		}
		days = append(days, d)
	}
	return days, nil
}

// Contains: t anı pencerenin içinde mi?
// Start > End ise pencere gece yarısını aşar: now >= start || now <= end.
func (s Spec) Contains(t time.Time) (bool, error) {
	if s.Location != nil {
		t = t.In(s.Location)
	}

	startMin, err := ParseClock(s.Start)
	if err != nil {
		return false, err
	}
	endMin, err := ParseClock(s.End)
	if err != nil {
		return false, err
	}

	nowMin := t.Hour()*60 + t.Minute()

	var inClock bool
	if startMin > endMin {
		inClock = nowMin >= startMin || nowMin <= endMin
	} else {
		inClock = nowMin >= startMin && nowMin <= endMin
	}
	if !inClock {
		return false, nil
	}

	if len(s.Days) == 0 {
		return true, nil
	}
	// Gece yarısını aşan pencerenin sabah kısmında gün, pencerenin başladığı güne göre sayılır
	day := int(t.Weekday())
	if startMin > endMin && nowMin <= endMin {
		day = (day + 6) % 7
	}
	for _, d := range s.Days {
		if d == day {
			return true, nil
		}
	}
	return false, nil
}

// SpecOf: model kaydından Spec üretir. Timezone boşsa fallback kullanılır.
func SpecOf(w models.OrderingWindow, fallbackTZ string) (Spec, error) {
	days, err := ParseDays(w.Days)
	if err != nil {
		return Spec{}, err
	}

	tz := w.Timezone
	if tz == "" {
		tz = fallbackTZ
	}
	var loc *time.Location
	if tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return Spec{}, fmt.Errorf("geçersiz zaman dilimi %q: %w", tz, err)
		}
	}

	return Spec{Days: days, Start: w.StartTime, End: w.EndTime, Location: loc}, nil
}

// AnyOpen: verilen pencerelerden en az biri şu an açık mı?
// Bozuk tanımlı pencere (parse hatası) kapalı sayılır, diğerleri denenir.
func AnyOpen(windows []models.OrderingWindow, now time.Time, fallbackTZ string) bool {
	for _, w := range windows {
		if !w.Active {
			continue
		}
		spec, err := SpecOf(w, fallbackTZ)
		if err != nil {
			continue
		}
		ok, err := spec.Contains(now)
		if err == nil && ok {
			return true
		}
	}
	return false
}

package window

import (
	"testing"
	"time"

	"rivercafe-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(weekday time.Weekday, hour, min int) time.Time {
	// 2026-08-02 bir Pazar; istenen güne kaydır
	base := time.Date(2026, 8, 2, hour, min, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(weekday))
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:30", 510, false},
		{"23:59", 1439, false},
		{" 12:00 ", 720, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"1200", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseDays(t *testing.T) {
	days, err := ParseDays("1, 2,3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, days)

	// 7 Pazar'a normalize edilir
	days, err = ParseDays("7")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, days)

	// boş = her gün
	days, err = ParseDays("  ")
	require.NoError(t, err)
	assert.Nil(t, days)

	_, err = ParseDays("1,8")
	assert.Error(t, err)

	_, err = ParseDays("1,x")
	assert.Error(t, err)
}

func TestContainsSameDayWindow(t *testing.T) {
	s := Spec{Start: "08:00", End: "10:30"}

	ok, err := s.Contains(at(time.Monday, 9, 15))
	require.NoError(t, err)
	assert.True(t, ok)

	// sınırlar dahil
	ok, _ = s.Contains(at(time.Monday, 8, 0))
	assert.True(t, ok)
	ok, _ = s.Contains(at(time.Monday, 10, 30))
	assert.True(t, ok)

	ok, _ = s.Contains(at(time.Monday, 7, 59))
	assert.False(t, ok)
	ok, _ = s.Contains(at(time.Monday, 10, 31))
	assert.False(t, ok)
}

func TestContainsWrapMidnight(t *testing.T) {
	// 22:00-02:00: gece yarısını aşan pencere
	s := Spec{Start: "22:00", End: "02:00"}

	ok, err := s.Contains(at(time.Friday, 23, 30))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = s.Contains(at(time.Saturday, 1, 0))
	assert.True(t, ok)

	ok, _ = s.Contains(at(time.Friday, 12, 0))
	assert.False(t, ok)

	ok, _ = s.Contains(at(time.Friday, 2, 1))
	assert.False(t, ok)
}

func TestContainsWrapMidnightDayAttribution(t *testing.T) {
	// Sadece Cuma (5) açık, 22:00-02:00
	s := Spec{Days: []int{5}, Start: "22:00", End: "02:00"}

	// Cuma gecesi 23:30 -> açık
	ok, err := s.Contains(at(time.Friday, 23, 30))
	require.NoError(t, err)
	assert.True(t, ok)

	// Cumartesi 01:00 pencerenin Cuma'dan sarkan kısmı -> açık
	ok, _ = s.Contains(at(time.Saturday, 1, 0))
	assert.True(t, ok)

	// Cumartesi 23:30 yeni bir pencere başlangıcı olurdu ama gün Cumartesi -> kapalı
	ok, _ = s.Contains(at(time.Saturday, 23, 30))
	assert.False(t, ok)

	// Cuma 01:00 Perşembe'nin sarkan kısmı -> kapalı
	ok, _ = s.Contains(at(time.Friday, 1, 0))
	assert.False(t, ok)
}

func TestContainsDayRestriction(t *testing.T) {
	s := Spec{Days: []int{1, 3}, Start: "08:00", End: "16:00"}

	ok, _ := s.Contains(at(time.Monday, 12, 0))
	assert.True(t, ok)
	ok, _ = s.Contains(at(time.Wednesday, 12, 0))
	assert.True(t, ok)
	ok, _ = s.Contains(at(time.Tuesday, 12, 0))
	assert.False(t, ok)
}

func TestAnyOpen(t *testing.T) {
	windows := []models.OrderingWindow{
		{Active: false, StartTime: "00:00", EndTime: "23:59"}, // pasif, sayılmaz
		{Active: true, StartTime: "bozuk", EndTime: "10:00"},  // bozuk tanım, kapalı sayılır
		{Active: true, StartTime: "08:00", EndTime: "10:30"},
	}

	assert.True(t, AnyOpen(windows, at(time.Monday, 9, 0), ""))
	assert.False(t, AnyOpen(windows, at(time.Monday, 12, 0), ""))
	assert.False(t, AnyOpen(nil, at(time.Monday, 9, 0), ""))
}

func TestSpecOf(t *testing.T) {
	w := models.OrderingWindow{Days: "1,7", StartTime: "08:00", EndTime: "10:00", Timezone: "Europe/Istanbul"}
	s, err := SpecOf(w, "")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, s.Days)
	require.NotNil(t, s.Location)
	assert.Equal(t, "Europe/Istanbul", s.Location.String())

	// timezone boşsa fallback
	w.Timezone = ""
	s, err = SpecOf(w, "UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", s.Location.String())

	w.Timezone = "Mars/Olympus"
	_, err = SpecOf(w, "")
	assert.Error(t, err)
}

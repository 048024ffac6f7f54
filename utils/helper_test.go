package utils_test

import (
	"testing"
	"time"

	"github.com/mmlivehub/opsboard_backend/utils"
)

func TestConvertToDate(t *testing.T) {
	cases := []struct {
		name     string
		input    time.Time
		timezone string
		want     string
	}{
		{
			// 23:30 UTC is already the next morning in Yangon (UTC+6:30)
			name:     "utc evening rolls to next yangon day",
			input:    time.Date(2026, 8, 19, 23, 30, 0, 0, time.UTC),
			timezone: "Asia/Yangon",
			want:     "2026-08-20",
		},
		{
			name:     "midday stays on the same day",
			input:    time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
			timezone: "Asia/Yangon",
			want:     "2026-08-20",
		},
		{
			name:     "empty timezone defaults to yangon",
			input:    time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
			timezone: "",
			want:     "2026-08-20",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := utils.ConvertToDate(tc.input, tc.timezone)
			if err != nil {
				t.Fatalf("ConvertToDate: %v", err)
			}
			if got.Format("2006-01-02") != tc.want {
				t.Fatalf("want %s, got %s", tc.want, got.Format("2006-01-02"))
			}
			if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
				t.Fatalf("expected midnight, got %s", got)
			}
		})
	}
}

func TestConvertToDate_InvalidTimezone(t *testing.T) {
	if _, err := utils.ConvertToDate(time.Now(), "Not/AZone"); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestUniqueSlice(t *testing.T) {
	got := utils.UniqueSlice([]int{3, 1, 3, 2, 1})
	if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("want [3 1 2], got %v", got)
	}
}

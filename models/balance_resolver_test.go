package models_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmlivehub/opsboard_backend/models"
	"github.com/shopspring/decimal"
)

func staticLookup(value decimal.Decimal, found bool, err error) models.PriorBalanceLookup {
	return func(ctx context.Context, deviceId int, reportDate time.Time, shiftNo int) (decimal.Decimal, bool, error) {
		return value, found, err
	}
}

func TestResolveOpeningBalance_DecisionOrder(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		shift      string
		liveStatus models.LiveStatus
		deviceId   int
		lookup     models.PriorBalanceLookup
		want       decimal.Decimal
		wantLocked bool
		wantWarn   bool
	}{
		{
			name:       "dead relive resets to zero",
			shift:      "3",
			liveStatus: models.LiveStatusDeadRelive,
			deviceId:   1,
			lookup:     staticLookup(decimal.NewFromInt(9999), true, nil),
			want:       decimal.Zero,
			wantLocked: true,
		},
		{
			name:       "first shift starts at zero",
			shift:      "1",
			liveStatus: models.LiveStatusSmooth,
			deviceId:   1,
			lookup:     staticLookup(decimal.NewFromInt(9999), true, nil),
			want:       decimal.Zero,
			wantLocked: true,
		},
		{
			name:       "first shift with surrounding whitespace",
			shift:      " 1 ",
			liveStatus: models.LiveStatusSmooth,
			deviceId:   1,
			lookup:     staticLookup(decimal.NewFromInt(9999), true, nil),
			want:       decimal.Zero,
			wantLocked: true,
		},
		{
			name:       "smooth continuation carries prior closing",
			shift:      "2",
			liveStatus: models.LiveStatusSmooth,
			deviceId:   1,
			lookup:     staticLookup(decimal.NewFromInt(1500), true, nil),
			want:       decimal.NewFromInt(1500),
			wantLocked: true,
		},
		{
			name:       "missing prior shift falls back editable",
			shift:      "3",
			liveStatus: models.LiveStatusSmooth,
			deviceId:   1,
			lookup:     staticLookup(decimal.Zero, false, nil),
			want:       decimal.Zero,
			wantLocked: false,
			wantWarn:   true,
		},
		{
			name:       "lookup failure falls back editable",
			shift:      "2",
			liveStatus: models.LiveStatusSmooth,
			deviceId:   1,
			lookup:     staticLookup(decimal.Zero, false, errors.New("db down")),
			want:       decimal.Zero,
			wantLocked: false,
			wantWarn:   true,
		},
		{
			name:       "no device set stays editable",
			shift:      "2",
			liveStatus: models.LiveStatusSmooth,
			deviceId:   0,
			lookup:     staticLookup(decimal.NewFromInt(1500), true, nil),
			want:       decimal.Zero,
			wantLocked: false,
		},
		{
			name:       "unparseable shift stays editable",
			shift:      "abc",
			liveStatus: models.LiveStatusSmooth,
			deviceId:   1,
			lookup:     staticLookup(decimal.NewFromInt(1500), true, nil),
			want:       decimal.Zero,
			wantLocked: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.ResolveOpeningBalance(ctx, tc.shift, tc.liveStatus, tc.deviceId, date, tc.lookup)
			if got.OpeningBalance.Cmp(tc.want) != 0 {
				t.Fatalf("opening balance: want %s, got %s", tc.want, got.OpeningBalance)
			}
			if got.Locked != tc.wantLocked {
				t.Fatalf("locked: want %v, got %v", tc.wantLocked, got.Locked)
			}
			if (got.Warning != "") != tc.wantWarn {
				t.Fatalf("warning: want present=%v, got %q", tc.wantWarn, got.Warning)
			}
		})
	}
}

func TestResolveOpeningBalance_LooksUpPreviousShift(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	var askedShift int
	lookup := func(ctx context.Context, deviceId int, reportDate time.Time, shiftNo int) (decimal.Decimal, bool, error) {
		askedShift = shiftNo
		return decimal.NewFromInt(200), true, nil
	}

	models.ResolveOpeningBalance(ctx, "4", models.LiveStatusSmooth, 7, date, lookup)
	if askedShift != 3 {
		t.Fatalf("expected lookup for shift 3, got %d", askedShift)
	}
}

func TestResolveOpeningBalance_ReEvaluatesEveryCall(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	// a stale cached value would surface here as the first result repeating
	value := decimal.NewFromInt(100)
	lookup := func(ctx context.Context, deviceId int, reportDate time.Time, shiftNo int) (decimal.Decimal, bool, error) {
		return value, true, nil
	}

	first := models.ResolveOpeningBalance(ctx, "2", models.LiveStatusSmooth, 1, date, lookup)
	if first.OpeningBalance.Cmp(decimal.NewFromInt(100)) != 0 {
		t.Fatalf("first resolve: want 100, got %s", first.OpeningBalance)
	}

	value = decimal.NewFromInt(250)
	second := models.ResolveOpeningBalance(ctx, "2", models.LiveStatusSmooth, 1, date, lookup)
	if second.OpeningBalance.Cmp(decimal.NewFromInt(250)) != 0 {
		t.Fatalf("second resolve: want 250, got %s", second.OpeningBalance)
	}
}

func TestSubmitDailyReport_EntryCountBounds(t *testing.T) {
	ctx := context.Background()

	if _, err := models.SubmitDailyReport(ctx, &models.NewDailyReport{
		ReportDate: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}); !errors.Is(err, models.ErrEntryCountOutOfRange) {
		t.Fatalf("empty batch: want ErrEntryCountOutOfRange, got %v", err)
	}

	entries := make([]models.NewDailyReportEntry, 11)
	for i := range entries {
		entries[i] = models.NewDailyReportEntry{
			DeviceId:        1,
			AccountId:       1,
			Shift:           "1",
			LiveStatus:      models.LiveStatusSmooth,
			ProductCategory: "Cosmetics",
		}
	}
	if _, err := models.SubmitDailyReport(ctx, &models.NewDailyReport{
		ReportDate: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		Entries:    entries,
	}); !errors.Is(err, models.ErrEntryCountOutOfRange) {
		t.Fatalf("11 entries: want ErrEntryCountOutOfRange, got %v", err)
	}
}

func TestValidateEntries_CollectsAllFailures(t *testing.T) {
	entries := []models.DailyShiftReport{
		{DeviceId: 1, AccountId: 1, Shift: 1, LiveStatus: models.LiveStatusSmooth, ProductCategory: "Cosmetics",
			OpeningBalance: decimal.Zero, ClosingBalance: decimal.NewFromInt(500)},
		{DeviceId: 0, AccountId: 1, Shift: 1, LiveStatus: models.LiveStatusSmooth, ProductCategory: "Cosmetics"},
		{DeviceId: 2, AccountId: 2, Shift: 2, LiveStatus: models.LiveStatusSmooth, ProductCategory: "Fashion",
			OpeningBalance: decimal.NewFromInt(800), ClosingBalance: decimal.NewFromInt(300)},
		{DeviceId: 3, AccountId: 3, Shift: 1, LiveStatus: models.LiveStatusSmooth},
	}

	errs := models.ValidateEntries(entries)
	if len(errs) != 3 {
		t.Fatalf("expected 3 entry errors, got %d: %+v", len(errs), errs)
	}

	byIndex := map[int]models.EntryError{}
	for _, e := range errs {
		byIndex[e.Index] = e
	}
	if byIndex[1].Kind != "incomplete" {
		t.Fatalf("entry 1: want incomplete, got %+v", byIndex[1])
	}
	if byIndex[2].Kind != "invalid balance" {
		t.Fatalf("entry 2: want invalid balance, got %+v", byIndex[2])
	}
	if byIndex[3].Kind != "incomplete" {
		t.Fatalf("entry 3: want incomplete, got %+v", byIndex[3])
	}
}

func TestValidateEntries_NegativeOpening(t *testing.T) {
	entries := []models.DailyShiftReport{
		{DeviceId: 1, AccountId: 1, Shift: 2, LiveStatus: models.LiveStatusSmooth, ProductCategory: "Cosmetics",
			OpeningBalance: decimal.NewFromInt(-50), ClosingBalance: decimal.NewFromInt(100)},
	}
	errs := models.ValidateEntries(entries)
	if len(errs) != 1 || errs[0].Kind != "invalid balance" {
		t.Fatalf("expected one invalid balance error, got %+v", errs)
	}
}

func TestValidateEntries_EqualBalancesAreValid(t *testing.T) {
	entries := []models.DailyShiftReport{
		{DeviceId: 1, AccountId: 1, Shift: 1, LiveStatus: models.LiveStatusSmooth, ProductCategory: "Cosmetics",
			OpeningBalance: decimal.NewFromInt(700), ClosingBalance: decimal.NewFromInt(700)},
	}
	if errs := models.ValidateEntries(entries); len(errs) != 0 {
		t.Fatalf("zero-sales shift should be valid, got %+v", errs)
	}
}

func TestTotalSalesOf(t *testing.T) {
	entries := []models.DailyShiftReport{
		{OpeningBalance: decimal.Zero, ClosingBalance: decimal.NewFromInt(1500)},
		{OpeningBalance: decimal.NewFromInt(1500), ClosingBalance: decimal.NewFromFloat(2750.5)},
		{OpeningBalance: decimal.NewFromInt(100), ClosingBalance: decimal.NewFromInt(100)},
	}
	total := models.TotalSalesOf(entries)
	if total.Cmp(decimal.NewFromFloat(2750.5)) != 0 {
		t.Fatalf("total sales: want 2750.5, got %s", total)
	}
}

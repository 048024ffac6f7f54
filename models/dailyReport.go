package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mmlivehub/opsboard_backend/config"
	"github.com/mmlivehub/opsboard_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrDuplicateShiftReport means a row for the same employee, date, device
// and shift already exists. The unique index is the source of truth here,
// the redis lock only narrows the race window.
var ErrDuplicateShiftReport = errors.New("a report for this device and shift has already been submitted for this date")

var (
	ErrUserNotAuthenticated = errors.New("user id is required")
	ErrEntryCountOutOfRange = errors.New("a report must contain between 1 and 10 entries")
	ErrUnknownDevice        = errors.New("one or more devices not found")
	ErrUnknownSellerAccount = errors.New("one or more seller accounts not found")
)

// DailyShiftReport is one device/shift line of an employee's daily report.
type DailyShiftReport struct {
	ID              int             `gorm:"primary_key" json:"id"`
	EmployeeId      int             `gorm:"not null;uniqueIndex:uniq_shift_report" json:"employee_id"`
	Employee        *Employee       `json:"employee"`
	ReportDate      time.Time       `gorm:"not null;uniqueIndex:uniq_shift_report" json:"report_date"`
	DeviceId        int             `gorm:"not null;uniqueIndex:uniq_shift_report" json:"device_id"`
	Device          *Device         `json:"device"`
	AccountId       int             `gorm:"not null" json:"account_id"`
	Account         *SellerAccount  `gorm:"foreignKey:AccountId" json:"account"`
	Shift           int             `gorm:"not null;uniqueIndex:uniq_shift_report" json:"shift"`
	LiveStatus      LiveStatus      `gorm:"type:enum('Smooth', 'DeadRelive');not null" json:"live_status"`
	ProductCategory string          `gorm:"size:100" json:"product_category"`
	OpeningBalance  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"opening_balance"`
	ClosingBalance  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"closing_balance"`
	BalanceLocked   bool            `gorm:"not null" json:"balance_locked"`
	Notes           string          `gorm:"size:500" json:"notes"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *DailyShiftReport) GetId() int {
	return r.ID
}

type NewDailyReportEntry struct {
	DeviceId        int             `json:"device_id" binding:"required"`
	AccountId       int             `json:"account_id" binding:"required"`
	Shift           string          `json:"shift" binding:"required"`
	LiveStatus      LiveStatus      `json:"live_status" binding:"required"`
	ProductCategory string          `json:"product_category"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	ClosingBalance  decimal.Decimal `json:"closing_balance"`
}

type NewDailyReport struct {
	ReportDate time.Time             `json:"report_date" binding:"required"`
	Notes      string                `json:"notes"`
	Entries    []NewDailyReportEntry `json:"entries" binding:"required,min=1,max=10,dive"`
}

// DailyReportResult is what the submitter gets back after a successful batch.
type DailyReportResult struct {
	ReportDate       time.Time       `json:"report_date"`
	EntryCount       int             `json:"entry_count"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	CheckOutRecorded bool            `json:"check_out_recorded"`
}

// AgencyTimezone is the local day boundary for report dates and attendance.
func AgencyTimezone() string {
	if tz := os.Getenv("AGENCY_TIMEZONE"); tz != "" {
		return tz
	}
	return "Asia/Yangon"
}

// PriorBalanceLookup fetches the closing balance of the previous shift on the
// same device and date. The bool is false when no such row exists.
type PriorBalanceLookup func(ctx context.Context, deviceId int, reportDate time.Time, shiftNo int) (decimal.Decimal, bool, error)

// ResolvedOpeningBalance is the outcome of the opening-balance decision chain.
// Locked means the client-entered value is ignored; an unlocked zero with a
// Warning means the resolver fell back because the prior shift was missing.
type ResolvedOpeningBalance struct {
	OpeningBalance decimal.Decimal
	Locked         bool
	Warning        string
}

// ResolveOpeningBalance derives the opening balance for one entry. The rules
// are ordered and the first match wins:
//
//  1. dead/relive restart  -> 0, locked
//  2. first shift of day   -> 0, locked
//  3. smooth continuation  -> prior shift's closing balance, locked
//  4. anything else        -> 0, editable
//
// Rule 3 soft-fails: a missing or unreadable prior row falls back to an
// editable 0 with a warning instead of rejecting the entry.
func ResolveOpeningBalance(ctx context.Context, shift string, liveStatus LiveStatus, deviceId int, reportDate time.Time, lookup PriorBalanceLookup) ResolvedOpeningBalance {

	if liveStatus == LiveStatusDeadRelive {
		return ResolvedOpeningBalance{OpeningBalance: decimal.Zero, Locked: true}
	}
	if strings.TrimSpace(shift) == "1" {
		return ResolvedOpeningBalance{OpeningBalance: decimal.Zero, Locked: true}
	}

	shiftNo, err := strconv.Atoi(strings.TrimSpace(shift))
	if liveStatus == LiveStatusSmooth && err == nil && shiftNo > 1 && deviceId != 0 && lookup != nil {
		prior, found, lookupErr := lookup(ctx, deviceId, reportDate, shiftNo-1)
		if lookupErr != nil || !found {
			if lookupErr != nil {
				config.LogError(config.GetLogger(), "dailyReport", "ResolveOpeningBalance", "prior balance lookup", map[string]interface{}{
					"deviceId": deviceId,
					"shift":    shiftNo - 1,
				}, lookupErr)
			}
			return ResolvedOpeningBalance{
				OpeningBalance: decimal.Zero,
				Warning:        "no prior-shift balance found",
			}
		}
		return ResolvedOpeningBalance{OpeningBalance: prior, Locked: true}
	}

	return ResolvedOpeningBalance{OpeningBalance: decimal.Zero}
}

// FindPriorClosingBalance is the DB-backed PriorBalanceLookup.
func FindPriorClosingBalance(ctx context.Context, deviceId int, reportDate time.Time, shiftNo int) (decimal.Decimal, bool, error) {
	db := config.GetDB()
	var row DailyShiftReport
	err := db.WithContext(ctx).
		Where("device_id = ? AND report_date = ? AND shift = ?", deviceId, reportDate, shiftNo).
		Order("id DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return row.ClosingBalance, true, nil
}

// EntryError points at one bad entry in a submitted batch.
type EntryError struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BatchValidationError carries every entry failure in the batch, not just
// the first, so the client can surface all of them at once.
type BatchValidationError struct {
	Errors []EntryError `json:"errors"`
}

func (e *BatchValidationError) Error() string {
	return fmt.Sprintf("%d of the submitted entries are invalid", len(e.Errors))
}

// ValidateEntries checks every entry and collects all failures.
// Opening balances must already be resolved before calling this.
func ValidateEntries(entries []DailyShiftReport) []EntryError {
	var errs []EntryError
	for i, entry := range entries {
		if entry.DeviceId == 0 || entry.AccountId == 0 {
			errs = append(errs, EntryError{Index: i, Kind: "incomplete", Message: "device and account are required"})
			continue
		}
		if entry.Shift < 1 {
			errs = append(errs, EntryError{Index: i, Kind: "incomplete", Message: "shift must be a positive number"})
			continue
		}
		if entry.LiveStatus != LiveStatusSmooth && entry.LiveStatus != LiveStatusDeadRelive {
			errs = append(errs, EntryError{Index: i, Kind: "incomplete", Message: "live status is required"})
			continue
		}
		if strings.TrimSpace(entry.ProductCategory) == "" {
			errs = append(errs, EntryError{Index: i, Kind: "incomplete", Message: "product category is required"})
			continue
		}
		if entry.OpeningBalance.IsNegative() {
			errs = append(errs, EntryError{Index: i, Kind: "invalid balance", Message: "opening balance cannot be negative"})
			continue
		}
		if entry.ClosingBalance.LessThan(entry.OpeningBalance) {
			errs = append(errs, EntryError{Index: i, Kind: "invalid balance", Message: "closing balance cannot be less than opening balance"})
		}
	}
	return errs
}

// TotalSalesOf sums closing minus opening across entries.
func TotalSalesOf(entries []DailyShiftReport) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.ClosingBalance.Sub(entry.OpeningBalance))
	}
	return total
}

// SubmitDailyReport writes an employee's whole day in one transaction:
// the shift rows plus the queued attendance check-out event. Opening
// balances are resolved server-side and client values for locked entries
// are discarded.
func SubmitDailyReport(ctx context.Context, input *NewDailyReport) (*DailyReportResult, error) {

	// gin binding enforces this at the boundary; guard again for other callers
	if len(input.Entries) < 1 || len(input.Entries) > 10 {
		return nil, ErrEntryCountOutOfRange
	}

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, ErrUserNotAuthenticated
	}
	employee, err := GetEmployeeByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}

	reportDate, err := utils.ConvertToDate(input.ReportDate, AgencyTimezone())
	if err != nil {
		return nil, err
	}

	deviceIds := make([]int, 0, len(input.Entries))
	accountIds := make([]int, 0, len(input.Entries))
	for _, entry := range input.Entries {
		deviceIds = append(deviceIds, entry.DeviceId)
		accountIds = append(accountIds, entry.AccountId)
	}
	if err := utils.ValidateResourcesId[Device](ctx, utils.UniqueSlice(deviceIds)); err != nil {
		return nil, ErrUnknownDevice
	}
	if err := utils.ValidateResourcesId[SellerAccount](ctx, utils.UniqueSlice(accountIds)); err != nil {
		return nil, ErrUnknownSellerAccount
	}

	release, err := utils.SubmissionLock(ctx,
		fmt.Sprintf("submit:%d:%s", employee.ID, reportDate.Format("2006-01-02")),
		"dailyReport", "SubmitDailyReport")
	if err != nil {
		return nil, err
	}
	defer release()

	rows := make([]DailyShiftReport, 0, len(input.Entries))
	rowIndex := make([]int, 0, len(input.Entries))
	var entryErrs []EntryError
	for i, entry := range input.Entries {
		shiftNo, parseErr := strconv.Atoi(strings.TrimSpace(entry.Shift))
		if parseErr != nil || shiftNo < 1 {
			entryErrs = append(entryErrs, EntryError{Index: i, Kind: "incomplete", Message: "shift must be a positive number"})
			continue
		}

		// locked entries always take the resolved value; unlocked ones keep
		// whatever the submitter typed.
		resolved := ResolveOpeningBalance(ctx, entry.Shift, entry.LiveStatus, entry.DeviceId, reportDate, FindPriorClosingBalance)
		opening := entry.OpeningBalance
		if resolved.Locked {
			opening = resolved.OpeningBalance
		}

		rows = append(rows, DailyShiftReport{
			EmployeeId:      employee.ID,
			ReportDate:      reportDate,
			DeviceId:        entry.DeviceId,
			AccountId:       entry.AccountId,
			Shift:           shiftNo,
			LiveStatus:      entry.LiveStatus,
			ProductCategory: entry.ProductCategory,
			OpeningBalance:  opening,
			ClosingBalance:  entry.ClosingBalance,
			BalanceLocked:   resolved.Locked,
			Notes:           input.Notes,
		})
		rowIndex = append(rowIndex, i)
	}

	// remap row positions back to the submitted entry index
	for _, validationErr := range ValidateEntries(rows) {
		validationErr.Index = rowIndex[validationErr.Index]
		entryErrs = append(entryErrs, validationErr)
	}
	if len(entryErrs) > 0 {
		return nil, &BatchValidationError{Errors: entryErrs}
	}

	totalSales := TotalSalesOf(rows)
	checkedOutAt := time.Now().UTC()

	db := config.GetDB()
	tx := db.Begin()

	if err := tx.WithContext(ctx).Create(&rows).Error; err != nil {
		tx.Rollback()
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return nil, ErrDuplicateShiftReport
		}
		return nil, err
	}

	if err := queueAttendanceEvent(tx, ctx, employee.ID, reportDate, len(rows), totalSales, checkedOutAt); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &DailyReportResult{
		ReportDate:       reportDate,
		EntryCount:       len(rows),
		TotalSales:       totalSales,
		CheckOutRecorded: true,
	}, nil
}

type DailyShiftReportConnection struct {
	Edges    []*DailyShiftReportEdge `json:"edges"`
	PageInfo *PageInfo               `json:"page_info"`
}

type DailyShiftReportEdge struct {
	Cursor string            `json:"cursor"`
	Node   *DailyShiftReport `json:"node"`
}

type DailyReportFilter struct {
	EmployeeId *int       `form:"employee_id" json:"employee_id"`
	DeviceId   *int       `form:"device_id" json:"device_id"`
	DateFrom   *time.Time `form:"date_from" json:"date_from" time_format:"2006-01-02"`
	DateTo     *time.Time `form:"date_to" json:"date_to" time_format:"2006-01-02"`
}

// PaginateDailyReports pages newest-first with an opaque id cursor.
func PaginateDailyReports(ctx context.Context, filter *DailyReportFilter, after *string) (*DailyShiftReportConnection, error) {

	db := config.GetDB()
	query := db.WithContext(ctx).Model(&DailyShiftReport{}).
		Preload("Employee").Preload("Device").Preload("Account")

	if filter != nil {
		if filter.EmployeeId != nil {
			query = query.Where("employee_id = ?", *filter.EmployeeId)
		}
		if filter.DeviceId != nil {
			query = query.Where("device_id = ?", *filter.DeviceId)
		}
		if filter.DateFrom != nil {
			from, err := utils.ConvertToDate(*filter.DateFrom, AgencyTimezone())
			if err != nil {
				return nil, err
			}
			query = query.Where("report_date >= ?", from)
		}
		if filter.DateTo != nil {
			to, err := utils.ConvertToDate(*filter.DateTo, AgencyTimezone())
			if err != nil {
				return nil, err
			}
			query = query.Where("report_date <= ?", to)
		}
	}

	// staff only ever see their own rows
	if role, ok := utils.GetRoleFromContext(ctx); ok && role == string(UserRoleStaff) {
		employeeId, ok := utils.GetEmployeeIdFromContext(ctx)
		if !ok || employeeId == 0 {
			return nil, ErrEmployeeNotLinked
		}
		query = query.Where("employee_id = ?", employeeId)
	}

	cursor, err := DecodeCursor(after)
	if err != nil {
		return nil, err
	}
	if cursor != "" {
		afterId, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, errors.New("invalid cursor")
		}
		query = query.Where("id < ?", afterId)
	}

	var rows []*DailyShiftReport
	if err := query.Order("id DESC").Limit(config.SearchLimit + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	hasNextPage := len(rows) > config.SearchLimit
	if hasNextPage {
		rows = rows[:config.SearchLimit]
	}

	edges := make([]*DailyShiftReportEdge, len(rows))
	for i, row := range rows {
		edges[i] = &DailyShiftReportEdge{
			Cursor: EncodeCursor(strconv.Itoa(row.ID)),
			Node:   row,
		}
	}

	pageInfo := &PageInfo{HasNextPage: &hasNextPage}
	if len(edges) > 0 {
		pageInfo.StartCursor = edges[0].Cursor
		pageInfo.EndCursor = edges[len(edges)-1].Cursor
	}

	return &DailyShiftReportConnection{Edges: edges, PageInfo: pageInfo}, nil
}

// GetReportsForDate lists one local day's rows, oldest shift first.
func GetReportsForDate(ctx context.Context, date time.Time) ([]*DailyShiftReport, error) {
	reportDate, err := utils.ConvertToDate(date, AgencyTimezone())
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	var rows []*DailyShiftReport
	err = db.WithContext(ctx).Model(&DailyShiftReport{}).
		Preload("Employee").Preload("Device").Preload("Account").
		Where("report_date = ?", reportDate).
		Order("device_id ASC, shift ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

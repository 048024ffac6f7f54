package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmlivehub/opsboard_backend/config"
	"github.com/mmlivehub/opsboard_backend/utils"
	"gorm.io/gorm"
)

// AttendanceRecord is one employee's presence for one calendar day.
// Check-out is normally written by the attendance worker when the day's
// report batch has been submitted.
type AttendanceRecord struct {
	ID             int        `gorm:"primary_key" json:"id"`
	EmployeeId     int        `gorm:"not null;uniqueIndex:uniq_attendance_day" json:"employee_id" binding:"required"`
	AttendanceDate time.Time  `gorm:"not null;uniqueIndex:uniq_attendance_day" json:"attendance_date" binding:"required"`
	CheckInTime    *time.Time `json:"check_in_time"`
	CheckOutTime   *time.Time `json:"check_out_time"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *AttendanceRecord) GetId() int {
	return a.ID
}

// CheckIn opens today's attendance for the employee linked to the
// authenticated user. Checking in twice is reported, not overwritten.
func CheckIn(ctx context.Context) (*AttendanceRecord, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, errors.New("user id is required")
	}
	employee, err := GetEmployeeByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	day, err := utils.ConvertToDate(now, AgencyTimezone())
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var existing AttendanceRecord
	err = db.WithContext(ctx).
		Where("employee_id = ? AND attendance_date = ?", employee.ID, day).
		Take(&existing).Error
	if err == nil {
		return nil, errors.New("already checked in for today")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record := AttendanceRecord{
		EmployeeId:     employee.ID,
		AttendanceDate: day,
		CheckInTime:    &now,
	}
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func GetAttendanceForDate(ctx context.Context, employeeId int, date time.Time) (*AttendanceRecord, error) {
	db := config.GetDB()
	var record AttendanceRecord
	err := db.WithContext(ctx).
		Where("employee_id = ? AND attendance_date = ?", employeeId, date).
		Take(&record).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &record, nil
}

// CloseAttendanceForDay marks the check-out for (employee, date).
// Idempotent: an already-set check-out is left untouched, and a missing
// attendance row is created so the day still closes (the employee filed a
// report without checking in).
func CloseAttendanceForDay(tx *gorm.DB, ctx context.Context, employeeId int, date time.Time, at time.Time) error {

	var record AttendanceRecord
	err := tx.WithContext(ctx).
		Where("employee_id = ? AND attendance_date = ?", employeeId, date).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = AttendanceRecord{
			EmployeeId:     employeeId,
			AttendanceDate: date,
			CheckOutTime:   &at,
		}
		return tx.WithContext(ctx).Create(&record).Error
	}
	if err != nil {
		return err
	}
	if record.CheckOutTime != nil {
		return nil
	}
	return tx.WithContext(ctx).Model(&record).
		UpdateColumn("check_out_time", at).Error
}

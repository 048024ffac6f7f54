package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mmlivehub/opsboard_backend/config"
	"github.com/mmlivehub/opsboard_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AttendanceEventRecord is the transactional outbox for check-out side
// effects. A row is written in the same transaction as the report batch;
// the attendance worker later closes the attendance day and, when Pub/Sub
// is configured, publishes the event.
type AttendanceEventRecord struct {
	ID            int                 `gorm:"primary_key" json:"id"`
	EmployeeId    int                 `gorm:"not null;index" json:"employee_id"`
	ReportDate    time.Time           `gorm:"not null" json:"report_date"`
	EntryCount    int                 `gorm:"not null" json:"entry_count"`
	TotalSales    decimal.Decimal     `gorm:"type:decimal(20,4);not null" json:"total_sales"`
	CheckedOutAt  time.Time           `gorm:"not null" json:"checked_out_at"`
	IsProcessed   *bool               `gorm:"not null;index" json:"is_processed"`
	LockedAt      *time.Time          `json:"locked_at"`
	LockedBy      *string             `gorm:"size:100" json:"locked_by"`
	ProcessedAt   *time.Time          `json:"processed_at"`
	PublishStatus OutboxPublishStatus `gorm:"type:enum('PENDING', 'SENT', 'SKIPPED', 'FAILED');default:PENDING" json:"publish_status"`
	CorrelationId string              `gorm:"size:50" json:"correlation_id"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if id, ok := utils.GetCorrelationIdFromContext(ctx); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// queueAttendanceEvent writes the outbox row inside the caller's
// transaction so the report batch and the pending check-out commit or
// roll back together.
func queueAttendanceEvent(tx *gorm.DB, ctx context.Context, employeeId int, reportDate time.Time, entryCount int, totalSales decimal.Decimal, checkedOutAt time.Time) error {
	record := AttendanceEventRecord{
		EmployeeId:    employeeId,
		ReportDate:    reportDate,
		EntryCount:    entryCount,
		TotalSales:    totalSales,
		CheckedOutAt:  checkedOutAt,
		IsProcessed:   utils.NewFalse(),
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.WithContext(ctx).Create(&record).Error
}

// ConvertToAttendanceEvent builds the publishable payload.
func (r *AttendanceEventRecord) ConvertToAttendanceEvent() config.AttendanceEvent {
	return config.AttendanceEvent{
		ID:            r.ID,
		EmployeeId:    r.EmployeeId,
		ReportDate:    r.ReportDate,
		EntryCount:    r.EntryCount,
		TotalSales:    r.TotalSales.String(),
		CheckedOutAt:  r.CheckedOutAt,
		CorrelationId: r.CorrelationId,
	}
}

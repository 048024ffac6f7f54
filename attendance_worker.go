package main

import (
	"context"
	"time"

	"github.com/mmlivehub/opsboard_backend/config"
	"github.com/mmlivehub/opsboard_backend/models"
	"github.com/mmlivehub/opsboard_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttendanceWorker drains the attendance outbox: for each committed report
// batch it closes the employee's attendance day and, when Pub/Sub is
// configured, publishes the check-out event downstream.
type AttendanceWorker struct {
	DB        *gorm.DB
	Logger    *logrus.Logger
	WorkerID  string
	BatchSize int
	Interval  time.Duration
	LockTTL   time.Duration
}

func NewAttendanceWorker(db *gorm.DB, logger *logrus.Logger) *AttendanceWorker {
	return &AttendanceWorker{
		DB:        db,
		Logger:    logger,
		WorkerID:  "attendance-" + time.Now().Format("20060102-150405.000"),
		BatchSize: 50,
		Interval:  2 * time.Second,
		LockTTL:   30 * time.Second,
	}
}

func (w *AttendanceWorker) Run(ctx context.Context) {
	if w == nil || w.DB == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := config.EnsureAttendanceTopic(ctx); err != nil && w.Logger != nil {
		w.Logger.WithFields(logrus.Fields{
			"field": "AttendanceWorker",
		}).Warn("could not ensure attendance topic: " + err.Error())
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		w.processOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.Interval):
		}
	}
}

func (w *AttendanceWorker) processOnce(ctx context.Context) {
	now := time.Now().UTC()
	staleBefore := now.Add(-w.LockTTL)

	var claimed []models.AttendanceEventRecord
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("is_processed = 0").
			Where("(locked_at IS NULL OR locked_at <= ?)", staleBefore).
			Order("id ASC").
			Limit(w.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}
		for i := range claimed {
			claimed[i].LockedAt = &now
			claimed[i].LockedBy = &w.WorkerID
			if err := tx.Model(&models.AttendanceEventRecord{}).
				Where("id = ?", claimed[i].ID).
				Updates(map[string]interface{}{
					"locked_at": claimed[i].LockedAt,
					"locked_by": claimed[i].LockedBy,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil || len(claimed) == 0 {
		return
	}

	for _, rec := range claimed {
		procCtx := utils.SetUserNameInContext(ctx, "System")
		procCtx = utils.SetCorrelationIdInContext(procCtx, rec.CorrelationId)

		if err := w.processRecord(procCtx, rec); err != nil {
			_ = w.DB.WithContext(ctx).Model(&models.AttendanceEventRecord{}).
				Where("id = ?", rec.ID).
				Updates(map[string]interface{}{
					"locked_at": nil,
					"locked_by": nil,
				}).Error
			if w.Logger != nil {
				w.Logger.WithFields(logrus.Fields{
					"field":          "AttendanceWorker",
					"employee_id":    rec.EmployeeId,
					"report_date":    rec.ReportDate.Format("2006-01-02"),
					"record_id":      rec.ID,
					"correlation_id": rec.CorrelationId,
				}).Error("attendance processing failed: " + err.Error())
			}
			continue
		}
	}
}

// processRecord closes the attendance day and marks the record processed in
// one transaction; the optional publish happens after commit so a Pub/Sub
// outage never blocks check-outs.
func (w *AttendanceWorker) processRecord(ctx context.Context, rec models.AttendanceEventRecord) error {

	processedAt := time.Now().UTC()
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := models.CloseAttendanceForDay(tx, ctx, rec.EmployeeId, rec.ReportDate, rec.CheckedOutAt); err != nil {
			return err
		}
		return tx.Model(&models.AttendanceEventRecord{}).
			Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"is_processed": true,
				"processed_at": &processedAt,
				"locked_at":    nil,
				"locked_by":    nil,
			}).Error
	})
	if err != nil {
		return err
	}

	status := models.OutboxPublishStatusSkipped
	if config.PubSubConfigured() {
		if _, pubErr := config.PublishAttendanceEvent(ctx, rec.ConvertToAttendanceEvent()); pubErr != nil {
			status = models.OutboxPublishStatusFailed
			if w.Logger != nil {
				w.Logger.WithFields(logrus.Fields{
					"field":          "AttendanceWorker",
					"record_id":      rec.ID,
					"correlation_id": rec.CorrelationId,
				}).Warn("attendance event publish failed: " + pubErr.Error())
			}
		} else {
			status = models.OutboxPublishStatusSent
		}
	}
	return w.DB.WithContext(ctx).Model(&models.AttendanceEventRecord{}).
		Where("id = ?", rec.ID).
		UpdateColumn("publish_status", status).Error
}

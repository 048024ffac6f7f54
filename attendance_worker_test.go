package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mmlivehub/opsboard_backend/config"
	"github.com/mmlivehub/opsboard_backend/models"
	"github.com/mmlivehub/opsboard_backend/utils"
	"github.com/shopspring/decimal"
)

func TestAttendanceWorker_ClosesDayAfterSubmission(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startTestRedis(t)
	t.Cleanup(func() { _ = removeContainer(redisName) })

	mysqlName, mysqlPort := startTestMySQL(t)
	t.Cleanup(func() { _ = removeContainer(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "opsboard_test")
	// Without a topic the worker must still close days and mark SKIPPED.
	t.Setenv("PUBSUB_ATTENDANCE_TOPIC", "")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	staff, err := models.CreateUser(ctx, &models.NewUser{
		Username: "hostB",
		Name:     "Host B",
		Password: "Secret123!",
		IsActive: utils.NewTrue(),
		Role:     models.UserRoleStaff,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	employee, err := models.CreateEmployee(ctx, &models.NewEmployee{
		UserId:   staff.ID,
		Name:     "Host B",
		IsActive: utils.NewTrue(),
	})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	device, err := models.CreateDevice(ctx, &models.NewDevice{
		Code: "DEV-W1", Name: "Phone W1", IsActive: utils.NewTrue(),
	})
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	account, err := models.CreateSellerAccount(ctx, &models.NewSellerAccount{
		Code: "ACC-W1", Name: "Shop W1", IsActive: utils.NewTrue(),
	})
	if err != nil {
		t.Fatalf("CreateSellerAccount: %v", err)
	}

	staffCtx := utils.SetUserIdInContext(context.Background(), staff.ID)
	staffCtx = utils.SetUsernameInContext(staffCtx, staff.Username)

	reportDate := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	if _, err := models.SubmitDailyReport(staffCtx, &models.NewDailyReport{
		ReportDate: reportDate,
		Entries: []models.NewDailyReportEntry{
			{
				DeviceId:        device.ID,
				AccountId:       account.ID,
				Shift:           "1",
				LiveStatus:      models.LiveStatusSmooth,
				ProductCategory: "Fashion",
				ClosingBalance:  decimal.NewFromInt(2500),
			},
		},
	}); err != nil {
		t.Fatalf("SubmitDailyReport: %v", err)
	}

	db := config.GetDB()
	worker := NewAttendanceWorker(db, config.GetLogger())
	worker.Interval = 100 * time.Millisecond

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(workerCtx)

	day, err := utils.ConvertToDate(reportDate, models.AgencyTimezone())
	if err != nil {
		t.Fatalf("ConvertToDate: %v", err)
	}

	// Wait for the worker to drain the outbox.
	deadline := time.Now().Add(15 * time.Second)
	var record *models.AttendanceRecord
	for time.Now().Before(deadline) {
		record, err = models.GetAttendanceForDate(ctx, employee.ID, day)
		if err == nil && record.CheckOutTime != nil {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}
	if record == nil || record.CheckOutTime == nil {
		t.Fatalf("worker did not close the attendance day")
	}

	var event models.AttendanceEventRecord
	if err := db.Where("employee_id = ?", employee.ID).Take(&event).Error; err != nil {
		t.Fatalf("fetch attendance event: %v", err)
	}
	if event.IsProcessed == nil || !*event.IsProcessed {
		t.Fatalf("event must be marked processed: %+v", event)
	}
	if event.PublishStatus != models.OutboxPublishStatusSkipped {
		t.Fatalf("publish status: want SKIPPED without a topic, got %s", event.PublishStatus)
	}
	if event.TotalSales.Cmp(decimal.NewFromInt(2500)) != 0 {
		t.Fatalf("event total sales: want 2500, got %s", event.TotalSales)
	}

	// Re-running against a drained outbox must be a no-op.
	worker.processOnce(context.Background())
	after, err := models.GetAttendanceForDate(ctx, employee.ID, day)
	if err != nil {
		t.Fatalf("GetAttendanceForDate(after): %v", err)
	}
	if !after.CheckOutTime.Equal(*record.CheckOutTime) {
		t.Fatalf("check-out changed on reprocess: %v -> %v", record.CheckOutTime, after.CheckOutTime)
	}
}

func TestEnsureAttendanceTopic_Unconfigured(t *testing.T) {
	t.Setenv("PUBSUB_ATTENDANCE_TOPIC", "")
	if err := config.EnsureAttendanceTopic(context.Background()); err != nil {
		t.Fatalf("unconfigured pubsub must be a no-op, got %v", err)
	}
}

func startTestRedis(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("opsboard-worker-redis-%d", time.Now().UnixNano())
	out, err := runDocker(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := containerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := runDocker("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startTestMySQL(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("opsboard-worker-mysql-%d", time.Now().UnixNano())
	out, err := runDocker(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=opsboard_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := containerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := runDocker("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func containerHostPort(container, portProto string) (string, error) {
	out, err := runDocker("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func removeContainer(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := runDocker("rm", "-f", container)
	return err
}

func runDocker(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}

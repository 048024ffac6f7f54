package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mmlivehub/opsboard_backend/middlewares"
	"github.com/mmlivehub/opsboard_backend/models"
	"github.com/mmlivehub/opsboard_backend/utils"
)

func registerRoutes(r *gin.Engine) {

	r.POST("/auth/login", loginHandler())
	r.POST("/auth/logout", logoutHandler())
	r.POST("/auth/change-password", changePasswordHandler())
	r.POST("/auth/token", apiTokenHandler())

	r.POST("/daily-reports", submitDailyReportHandler())
	r.GET("/daily-reports", listDailyReportsHandler())
	r.GET("/daily-reports/opening-balance", openingBalanceHandler())

	r.POST("/attendance/check-in", checkInHandler())
	r.GET("/attendance", attendanceHandler())

	r.GET("/devices", listDevicesHandler())
	r.GET("/seller-accounts", listSellerAccountsHandler())
	r.GET("/employees", listEmployeesHandler())

	backOffice := []string{
		string(models.UserRoleAdmin), string(models.UserRoleManager),
		string(models.UserRoleTeamLead), string(models.UserRoleFinance),
	}
	reports := r.Group("/", middlewares.RequireRole(backOffice...))
	reports.GET("/daily-reports/summary", dailySummaryHandler())
	reports.GET("/daily-reports/export", exportDailyReportHandler())

	admin := r.Group("/admin", middlewares.RequireRole(string(models.UserRoleAdmin)))
	admin.POST("/users", createUserHandler())
	admin.POST("/employees", createEmployeeHandler())
	admin.POST("/devices", createDeviceHandler())
	admin.POST("/seller-accounts", createSellerAccountHandler())
}

// bindError turns gin binding failures into field-level messages.
func bindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": ok})
	}
}

// apiTokenHandler issues a JWT for machine clients (exports, sync jobs)
// that authenticate per call instead of holding a browser session.
func apiTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		token, err := models.IssueApiToken(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

func changePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if _, err := models.ChangePassword(c.Request.Context(), req.OldPassword, req.NewPassword); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// submitErrorStatus maps submission failures to HTTP statuses. Known
// input problems stay 4xx; anything unrecognized is a persistence or
// infrastructure failure the client may safely retry, so it gets a 500.
func submitErrorStatus(err error) int {
	var batchErr *models.BatchValidationError
	switch {
	case errors.As(err, &batchErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrDuplicateShiftReport):
		return http.StatusConflict
	case errors.Is(err, models.ErrEmployeeNotLinked):
		return http.StatusForbidden
	case errors.Is(err, models.ErrUserNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrEntryCountOutOfRange),
		errors.Is(err, models.ErrUnknownDevice),
		errors.Is(err, models.ErrUnknownSellerAccount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func submitDailyReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewDailyReport
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		result, err := models.SubmitDailyReport(c.Request.Context(), &input)
		if err != nil {
			status := submitErrorStatus(err)
			var batchErr *models.BatchValidationError
			if errors.As(err, &batchErr) {
				c.JSON(status, gin.H{"error": batchErr.Error(), "entries": batchErr.Errors})
				return
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func listDailyReportsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.DailyReportFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			bindError(c, err)
			return
		}
		var after *string
		if v := c.Query("after"); v != "" {
			after = &v
		}
		connection, err := models.PaginateDailyReports(c.Request.Context(), &filter, after)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, connection)
	}
}

type openingBalanceRequest struct {
	DeviceId   int               `form:"device_id" binding:"required"`
	Shift      string            `form:"shift" binding:"required"`
	LiveStatus models.LiveStatus `form:"live_status" binding:"required"`
	Date       time.Time         `form:"date" binding:"required" time_format:"2006-01-02"`
}

// openingBalanceHandler previews the resolved opening balance so the form
// can lock the field before submission. Submission re-resolves on its own.
func openingBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req openingBalanceRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			bindError(c, err)
			return
		}
		reportDate, err := utils.ConvertToDate(req.Date, models.AgencyTimezone())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		resolved := models.ResolveOpeningBalance(c.Request.Context(), req.Shift, req.LiveStatus, req.DeviceId, reportDate, models.FindPriorClosingBalance)
		response := gin.H{
			"opening_balance": resolved.OpeningBalance,
			"locked":          resolved.Locked,
		}
		if resolved.Warning != "" {
			response["warning"] = resolved.Warning
		}
		c.JSON(http.StatusOK, response)
	}
}

func dailySummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		date, err := time.Parse("2006-01-02", c.Query("date"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date is required (YYYY-MM-DD)"})
			return
		}
		rows, err := models.GetDailySummary(c.Request.Context(), date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"date": date.Format("2006-01-02"), "summary": rows})
	}
}

func exportDailyReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		date, err := time.Parse("2006-01-02", c.Query("date"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date is required (YYYY-MM-DD)"})
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=daily-report-%s.xlsx", date.Format("2006-01-02")))
		if err := models.WriteDailyReportExcel(c.Request.Context(), date, c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write file"})
		}
	}
}

func checkInHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := models.CheckIn(c.Request.Context())
		if err != nil {
			if errors.Is(err, models.ErrEmployeeNotLinked) {
				c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, record)
	}
}

func attendanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		date, err := time.Parse("2006-01-02", c.Query("date"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date is required (YYYY-MM-DD)"})
			return
		}
		employeeId, ok := utils.GetEmployeeIdFromContext(c.Request.Context())
		if !ok || employeeId == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": models.ErrEmployeeNotLinked.Error()})
			return
		}
		day, err := utils.ConvertToDate(date, models.AgencyTimezone())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		record, err := models.GetAttendanceForDate(c.Request.Context(), employeeId, day)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no attendance for this date"})
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func listDevicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		devices, err := models.GetAllDevices(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, devices)
	}
}

func listSellerAccountsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := models.GetAllSellerAccounts(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, accounts)
	}
}

func listEmployeesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employees, err := models.GetAllEmployees(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, employees)
	}
}

func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func createEmployeeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewEmployee
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		employee, err := models.CreateEmployee(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, employee)
	}
}

func createDeviceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewDevice
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		device, err := models.CreateDevice(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, device)
	}
}

func createSellerAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSellerAccount
		if err := c.ShouldBindJSON(&input); err != nil {
			bindError(c, err)
			return
		}
		account, err := models.CreateSellerAccount(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, account)
	}
}

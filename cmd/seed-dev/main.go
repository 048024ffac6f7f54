// seed-dev loads a small development dataset: a staff user with a linked
// employee profile, a couple of livestream devices and seller accounts.
// Safe to re-run; existing rows are left alone.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mmlivehub/opsboard_backend/config"
	"github.com/mmlivehub/opsboard_backend/models"
	"github.com/mmlivehub/opsboard_backend/utils"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	staff := seedUser(ctx, db, "maymyat", "Staff123!", "May Myat", models.UserRoleStaff)
	seedEmployee(ctx, db, staff, "May Myat", "Host", "Team A")
	seedUser(ctx, db, "finance01", "Finance123!", "Finance Desk", models.UserRoleFinance)

	seedDevice(ctx, db, "DEV-01", "Phone 1", "TikTok")
	seedDevice(ctx, db, "DEV-02", "Phone 2", "TikTok")
	seedAccount(ctx, db, "ACC-01", "Main Shop", "TikTok")
	seedAccount(ctx, db, "ACC-02", "Backup Shop", "TikTok")

	fmt.Println("dev seed complete")
}

func seedUser(ctx context.Context, db *gorm.DB, username, password, name string, role models.UserRole) *models.User {
	var existing models.User
	if err := db.WithContext(ctx).Where("username = ?", username).Take(&existing).Error; err == nil {
		return &existing
	}
	user, err := models.CreateUser(ctx, &models.NewUser{
		Username: username,
		Name:     name,
		Password: password,
		IsActive: utils.NewTrue(),
		Role:     role,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed user %s: %v\n", username, err)
		os.Exit(1)
	}
	fmt.Printf("seeded user %q (role=%s)\n", username, role)
	return user
}

func seedEmployee(ctx context.Context, db *gorm.DB, user *models.User, name, position, team string) {
	var existing models.Employee
	if err := db.WithContext(ctx).Where("user_id = ?", user.ID).Take(&existing).Error; err == nil {
		return
	}
	if _, err := models.CreateEmployee(ctx, &models.NewEmployee{
		UserId:   user.ID,
		Name:     name,
		Position: position,
		TeamName: team,
		IsActive: utils.NewTrue(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed employee for %s: %v\n", user.Username, err)
		os.Exit(1)
	}
	fmt.Printf("seeded employee %q\n", name)
}

func seedDevice(ctx context.Context, db *gorm.DB, code, name, platform string) {
	var existing models.Device
	if err := db.WithContext(ctx).Where("code = ?", code).Take(&existing).Error; err == nil {
		return
	}
	if _, err := models.CreateDevice(ctx, &models.NewDevice{
		Code:     code,
		Name:     name,
		Platform: platform,
		IsActive: utils.NewTrue(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed device %s: %v\n", code, err)
		os.Exit(1)
	}
	fmt.Printf("seeded device %q\n", code)
}

func seedAccount(ctx context.Context, db *gorm.DB, code, name, platform string) {
	var existing models.SellerAccount
	if err := db.WithContext(ctx).Where("code = ?", code).Take(&existing).Error; err == nil {
		return
	}
	if _, err := models.CreateSellerAccount(ctx, &models.NewSellerAccount{
		Code:     code,
		Name:     name,
		Platform: platform,
		IsActive: utils.NewTrue(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed seller account %s: %v\n", code, err)
		os.Exit(1)
	}
	fmt.Printf("seeded seller account %q\n", code)
}

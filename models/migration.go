package models

import (
	"log"

	"github.com/mmlivehub/opsboard_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{}, &Employee{},
		&Device{}, &SellerAccount{},
		&DailyShiftReport{},
		&AttendanceRecord{}, &AttendanceEventRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}

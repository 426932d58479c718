package models

import (
	"log"

	"github.com/sigayyury-ai/crmtowfirma-sub012/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Payment{},
		&ScheduledAction{},
		&ReconciliationRun{},
	)
	if err != nil {
		log.Fatal(err)
	}
}

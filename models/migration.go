package models

import (
	"log"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&ProductCategory{}, &ProductType{}, &Product{}, &ProductVariant{},
		&Order{}, &OrderItem{}, &Payment{},
		&PurchaseInvoice{}, &Expense{},
		&Settings{},
		&OutboxMessage{},
		&DailySalesSummary{},
		&utils.StoredObject{},
	)
	if err != nil {
		log.Fatal(err)
	}
}

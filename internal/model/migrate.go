package model

import "gorm.io/gorm"

func All() []interface{} {
	return []interface{}{
		&ServiceInstance{},
		&Subscription{},
		&Charge{},
		&WalletTransaction{},
	}
}

// AutoMigrate creates tables and the partial unique indexes declared in the
// model tags.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}

package dao

import (
	"fmt"

	"gorm.io/gorm"
)

// InitTables creates the chat_message table when it does not exist. It is
// safe to call on every startup.
func InitTables(db *gorm.DB) error {
	if err := db.AutoMigrate(&ChatMessage{}); err != nil {
		return fmt.Errorf("%w: db.AutoMigrate -> %w", ErrStoreConnect, err)
	}

	return nil
}

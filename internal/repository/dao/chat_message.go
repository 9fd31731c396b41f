package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ChatMessage struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Message    string    `gorm:"type:text;not null"`
	CreateTime time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP"`
}

func (ChatMessage) TableName() string {
	return "chat_message"
}

type ChatMessageDAO struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewChatMessageDAO bounds every statement by timeout; zero leaves the
// caller's context as is.
func NewChatMessageDAO(db *gorm.DB, timeout time.Duration) *ChatMessageDAO {
	return &ChatMessageDAO{
		db:      db,
		timeout: timeout,
	}
}

func (d *ChatMessageDAO) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.timeout)
}

// Insert stores text and returns the row as the database assigned it.
func (d *ChatMessageDAO) Insert(ctx context.Context, text string) (ChatMessage, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	msg := ChatMessage{Message: text}
	tx := d.db.WithContext(ctx)
	if err := tx.Select("Message").Create(&msg).Error; err != nil {
		return ChatMessage{}, classify(err, ErrStoreWrite)
	}

	// create_time is filled in by the column default.
	var created ChatMessage
	if err := tx.First(&created, msg.ID).Error; err != nil {
		return ChatMessage{}, classify(err, ErrStoreWrite)
	}

	return created, nil
}

func (d *ChatMessageDAO) FindAll(ctx context.Context, desc bool) ([]ChatMessage, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	order := "id ASC"
	if desc {
		order = "id DESC"
	}

	messages := []ChatMessage{}
	if err := d.db.WithContext(ctx).Order(order).Find(&messages).Error; err != nil {
		return nil, classify(err, ErrStoreRead)
	}

	return messages, nil
}

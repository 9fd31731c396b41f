package repository

import (
	"context"
	"fmt"

	"github.com/yizeng/gab/gin/gorm/chatboard/internal/domain"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/repository/dao"
)

var (
	ErrStoreConnect = dao.ErrStoreConnect
	ErrStoreWrite   = dao.ErrStoreWrite
	ErrStoreRead    = dao.ErrStoreRead
)

type ChatMessageDAO interface {
	Insert(ctx context.Context, text string) (dao.ChatMessage, error)
	FindAll(ctx context.Context, desc bool) ([]dao.ChatMessage, error)
}

type ChatMessageRepository struct {
	dao ChatMessageDAO
}

func NewChatMessageRepository(dao ChatMessageDAO) *ChatMessageRepository {
	return &ChatMessageRepository{
		dao: dao,
	}
}

func (r *ChatMessageRepository) Create(ctx context.Context, text string) (domain.ChatMessage, error) {
	created, err := r.dao.Insert(ctx, text)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *ChatMessageRepository) List(ctx context.Context, order domain.Order) ([]domain.ChatMessage, error) {
	found, err := r.dao.FindAll(ctx, order != domain.OrderAsc)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	messages := make([]domain.ChatMessage, len(found))
	for i, m := range found {
		messages[i] = r.daoToDomain(m)
	}

	return messages, nil
}

func (r *ChatMessageRepository) daoToDomain(m dao.ChatMessage) domain.ChatMessage {
	return domain.ChatMessage{
		ID:         m.ID,
		Message:    m.Message,
		CreateTime: m.CreateTime,
	}
}

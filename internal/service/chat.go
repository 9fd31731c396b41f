package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/chatboard/internal/domain"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/repository"
)

var (
	ErrStoreConnect = repository.ErrStoreConnect
	ErrStoreWrite   = repository.ErrStoreWrite
	ErrStoreRead    = repository.ErrStoreRead
)

type ChatMessageRepository interface {
	Create(ctx context.Context, text string) (domain.ChatMessage, error)
	List(ctx context.Context, order domain.Order) ([]domain.ChatMessage, error)
}

type Notifier interface {
	Notify(ctx context.Context, text string) domain.NotifyResult
}

type ChatService struct {
	repo     ChatMessageRepository
	notifier Notifier
}

func NewChatService(repo ChatMessageRepository, notifier Notifier) *ChatService {
	return &ChatService{
		repo:     repo,
		notifier: notifier,
	}
}

// Send stores text and then forwards it. The message stays stored whatever
// the notifier reports; only a failed store write is returned as an error.
func (s *ChatService) Send(ctx context.Context, text string) (domain.NotifyResult, error) {
	created, err := s.repo.Create(ctx, text)
	if err != nil {
		return domain.NotifyResult{}, fmt.Errorf("s.repo.Create -> %w", err)
	}
	zap.L().Debug("message stored", zap.Uint("id", created.ID))

	return s.notifier.Notify(ctx, text), nil
}

func (s *ChatService) List(ctx context.Context, order domain.Order) ([]domain.ChatMessage, error) {
	messages, err := s.repo.List(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return messages, nil
}

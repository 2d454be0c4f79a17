package app

import (
	"context"

	"malaria-scan/internal/domain/entity"
	"malaria-scan/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) BeginAnalysis(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingScan)
}

// StartProcessing помечает, что снимок пользователя принят в работу.
func (s *UserService) StartProcessing(ctx context.Context, userID int64) error {
	return s.repo.UpdateState(ctx, userID, entity.StateProcessing)
}

// FinishAnalysis запоминает последний анализ и возвращает пользователя в меню.
func (s *UserService) FinishAnalysis(ctx context.Context, userID, chatID int64, analysisID string) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(entity.StateMainMenu)
	if analysisID != "" {
		user.LastAnalysisID = analysisID
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

package service

import (
	"context"
	"fmt"

	"rollhouse/events"
	"rollhouse/models"

	log "github.com/sirupsen/logrus"
)

type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{
		uowFactory: uowFactory,
	}
}

func (s *userService) GetOrCreateUser(ctx context.Context, telegramID int64, profile models.UserProfile, refID *int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		user, err = uow.UserRepository().Create(ctx, telegramID, profile)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		// The referrer binds once, at account creation, and never changes
		if refID != nil {
			if err := uow.UserRepository().SetReferrer(ctx, telegramID, *refID); err != nil {
				return nil, fmt.Errorf("failed to set referrer: %w", err)
			}
		}

		uow.EventBus().Publish(events.UserCreatedEvent{
			TelegramID: telegramID,
			Username:   profile.Username,
			RefID:      refID,
		})

		log.WithFields(log.Fields{
			"user":     telegramID,
			"username": profile.Username,
		}).Info("User created")
	} else {
		if err := uow.UserRepository().UpdateProfile(ctx, telegramID, profile); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	// Re-read so the caller sees the post-update row
	user, err = uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

func (s *userService) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", telegramID, ErrNotFound)
	}
	return user, nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

const (
	userNameMinLength = 2
	userNameMaxLength = 100

	timestampLayout = "2006-01-02 15:04:05"
)

type UserService struct {
	repo          domain.UserRepository
	borrowingRepo domain.BorrowingRepository
	auditSvc      domain.AuditLogService
	eventSvc      domain.EventStoreService
	logger        logger.Logger
}

func NewUserService(
	repo domain.UserRepository,
	borrowingRepo domain.BorrowingRepository,
	auditSvc domain.AuditLogService,
	eventSvc domain.EventStoreService,
	logger logger.Logger,
) domain.UserService {
	return &UserService{
		repo:          repo,
		borrowingRepo: borrowingRepo,
		auditSvc:      auditSvc,
		eventSvc:      eventSvc,
		logger:        logger,
	}
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*domain.UserListItem, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("kullanıcılar alınamadı: %w", err)
	}

	if users == nil {
		users = []*domain.UserListItem{}
	}

	return users, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*domain.UserDetail, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("kullanıcı alınamadı: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	borrowings, err := s.borrowingRepo.FindByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("kullanıcının ödünç geçmişi alınamadı: %w", err)
	}

	detail := &domain.UserDetail{
		ID:   user.ID,
		Name: user.Name,
		Books: domain.UserBooks{
			Past:    []domain.BorrowedBookRecord{},
			Present: []domain.BorrowedBookRecord{},
		},
	}

	now := time.Now()
	for _, b := range borrowings {
		record := domain.BorrowedBookRecord{
			Name:       b.BookName,
			BorrowedAt: b.BorrowedAt.Format(timestampLayout),
			UserScore:  b.Score,
		}

		if b.ReturnedAt != nil {
			record.ReturnedAt = b.ReturnedAt.Format(timestampLayout)
			record.Duration = durationInDays(b.BorrowedAt, *b.ReturnedAt)
			detail.Books.Past = append(detail.Books.Past, record)
		} else {
			record.Duration = durationInDays(b.BorrowedAt, now)
			detail.Books.Present = append(detail.Books.Present, record)
		}
	}

	return detail, nil
}

func (s *UserService) CreateUser(ctx context.Context, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)

	// Sınırlar karakter sayısıyla ölçülür, bayt sayısıyla değil
	length := utf8.RuneCountInString(name)
	if length < userNameMinLength || length > userNameMaxLength {
		return nil, domain.ErrInvalidName
	}

	user := &domain.User{Name: name}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("kullanıcı oluşturulamadı: %w", err)
	}

	s.logger.Info("Kullanıcı oluşturuldu", map[string]interface{}{"id": user.ID, "name": user.Name})

	s.auditSvc.LogAction(domain.EntityTypeUser, user.ID, domain.ActionTypeCreate,
		fmt.Sprintf("Kullanıcı oluşturuldu: %s", user.Name))

	if err := s.eventSvc.RecordEvent(ctx, domain.AggregateTypeUser, fmt.Sprintf("%d", user.ID), domain.EventTypeUserCreated, user); err != nil {
		s.logger.Error("Kullanıcı olayı kaydedilemedi", map[string]interface{}{"id": user.ID, "error": err.Error()})
	}

	return user, nil
}

func durationInDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

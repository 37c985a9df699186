package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

const (
	bookNameMinLength = 2
	bookNameMaxLength = 255
)

type BookService struct {
	repo     domain.BookRepository
	auditSvc domain.AuditLogService
	eventSvc domain.EventStoreService
	logger   logger.Logger
}

func NewBookService(
	repo domain.BookRepository,
	auditSvc domain.AuditLogService,
	eventSvc domain.EventStoreService,
	logger logger.Logger,
) domain.BookService {
	return &BookService{
		repo:     repo,
		auditSvc: auditSvc,
		eventSvc: eventSvc,
		logger:   logger,
	}
}

func (s *BookService) GetAllBooks(ctx context.Context) ([]*domain.BookListItem, error) {
	books, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("kitaplar alınamadı: %w", err)
	}

	if books == nil {
		books = []*domain.BookListItem{}
	}

	return books, nil
}

func (s *BookService) GetBookByID(ctx context.Context, id int64) (*domain.BookDetail, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("kitap alınamadı: %w", err)
	}
	if book == nil {
		return nil, domain.ErrBookNotFound
	}

	detail := &domain.BookDetail{
		ID:    book.ID,
		Name:  book.Name,
		Score: book.AverageScore,
	}

	// Puanlanmamış kitaplar gösterimde -1 ile ayrışır
	if book.TotalRatings == 0 {
		detail.Score = domain.UnratedScore
	}

	return detail, nil
}

func (s *BookService) CreateBook(ctx context.Context, name string) (*domain.Book, error) {
	name = strings.TrimSpace(name)

	length := utf8.RuneCountInString(name)
	if length < bookNameMinLength || length > bookNameMaxLength {
		return nil, domain.ErrInvalidName
	}

	book := &domain.Book{Name: name}
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("kitap oluşturulamadı: %w", err)
	}

	s.logger.Info("Kitap oluşturuldu", map[string]interface{}{"id": book.ID, "name": book.Name})

	s.auditSvc.LogAction(domain.EntityTypeBook, book.ID, domain.ActionTypeCreate,
		fmt.Sprintf("Kitap oluşturuldu: %s", book.Name))

	if err := s.eventSvc.RecordEvent(ctx, domain.AggregateTypeBook, fmt.Sprintf("%d", book.ID), domain.EventTypeBookCreated, book); err != nil {
		s.logger.Error("Kitap olayı kaydedilemedi", map[string]interface{}{"id": book.ID, "error": err.Error()})
	}

	return book, nil
}

package domain

import (
	"context"
	"database/sql"
	"time"
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserListItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type BorrowedBookRecord struct {
	Name       string `json:"name"`
	BorrowedAt string `json:"borrowedAt"`
	UserScore  *int64 `json:"userScore,omitempty"`
	ReturnedAt string `json:"returnedAt,omitempty"`
	Duration   int    `json:"duration"`
}

type UserBooks struct {
	Past    []BorrowedBookRecord `json:"past"`
	Present []BorrowedBookRecord `json:"present"`
}

type UserDetail struct {
	ID    int64     `json:"id"`
	Name  string    `json:"name"`
	Books UserBooks `json:"books"`
}

type UserRepository interface {
	FindAll(ctx context.Context) ([]*UserListItem, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user *User) error
	ExistsTx(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
}

type UserService interface {
	GetAllUsers(ctx context.Context) ([]*UserListItem, error)
	GetUserByID(ctx context.Context, id int64) (*UserDetail, error)
	CreateUser(ctx context.Context, name string) (*User, error)
}

package domain

import "errors"

var (
	ErrUserNotFound         = errors.New("kullanıcı bulunamadı")
	ErrBookNotFound         = errors.New("kitap bulunamadı")
	ErrBookUnavailable      = errors.New("kitap şu anda müsait değil")
	ErrUserHasActiveLoan    = errors.New("kullanıcının iade edilmemiş kitabı var")
	ErrNoMatchingActiveLoan = errors.New("eşleşen aktif ödünç kaydı bulunamadı")
	ErrInvalidScore         = errors.New("puan 1 ile 10 arasında olmalıdır")
	ErrInvalidName          = errors.New("geçersiz isim")
	ErrDuplicateRecord      = errors.New("kayıt zaten mevcut")
)

package storage

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled - хранилище не настроено (S3_ENDPOINT пуст).
var ErrDisabled = errors.New("armazenamento de arquivos não configurado")

// FileStorage работает с ключами объектов внутри бакета (например qrcodes/<uuid>.png).
type FileStorage interface {
	UploadFile(ctx context.Context, folder string, data []byte, ext, contentType string) (string, error)

	DeleteFile(ctx context.Context, key string) error

	GetFile(ctx context.Context, key string) ([]byte, error)

	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// DisabledStorage отвечает ErrDisabled на любую операцию.
type DisabledStorage struct{}

func (DisabledStorage) UploadFile(context.Context, string, []byte, string, string) (string, error) {
	return "", ErrDisabled
}

func (DisabledStorage) DeleteFile(context.Context, string) error { return ErrDisabled }

func (DisabledStorage) GetFile(context.Context, string) ([]byte, error) { return nil, ErrDisabled }

func (DisabledStorage) GetPresignedURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrDisabled
}

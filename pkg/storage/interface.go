package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound est renvoyé par Download quand l'objet n'existe pas
var ErrNotFound = errors.New("object not found")

// Storage définit l'interface du stockage des résultats vidéo
type Storage interface {
	// Upload écrit un objet, en écrasant l'existant
	Upload(ctx context.Context, path string, data io.Reader) error

	// Download ouvre un objet; l'appelant ferme le flux
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	Exists(ctx context.Context, path string) (bool, error)

	// Delete est idempotent
	Delete(ctx context.Context, path string) error

	List(ctx context.Context, prefix string) ([]string, error)

	// GetURL retourne l'URL d'accès à un objet
	GetURL(ctx context.Context, path string) (string, error)
}

// StorageConfig contient la configuration du storage
type StorageConfig struct {
	Type      string // "filesystem" ou "garage"
	BasePath  string // Pour filesystem
	Endpoint  string // Pour S3/Garage
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"veo-console/pkg/storage"
)

const resultsPrefix = "results/"

// ErrInvalidOperation signale un nom d'opération inutilisable comme clé
var ErrInvalidOperation = errors.New("invalid operation name")

// ResultService stocke les vidéos générées, indexées par nom d'opération
type ResultService struct {
	storage storage.Storage
}

func NewResultService(storage storage.Storage) *ResultService {
	return &ResultService{
		storage: storage,
	}
}

// ResultPath retourne la clé de stockage d'une opération:
// results/{operation_name}.mp4
func ResultPath(operation string) (string, error) {
	op := strings.Trim(operation, "/")
	if op == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidOperation)
	}
	for _, segment := range strings.Split(op, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidOperation, operation)
		}
	}
	return resultsPrefix + op + ".mp4", nil
}

// Save copie le flux vidéo d'une opération dans le stockage
func (s *ResultService) Save(ctx context.Context, operation string, content io.Reader) (string, error) {
	path, err := ResultPath(operation)
	if err != nil {
		return "", err
	}

	if err := s.storage.Upload(ctx, path, content); err != nil {
		return "", fmt.Errorf("failed to save result for %s: %w", operation, err)
	}

	return path, nil
}

// Open ouvre le résultat enregistré. found vaut false si rien n'est en cache.
func (s *ResultService) Open(ctx context.Context, operation string) (io.ReadCloser, bool, error) {
	path, err := ResultPath(operation)
	if err != nil {
		return nil, false, err
	}

	reader, err := s.storage.Download(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to open result for %s: %w", operation, err)
	}

	return reader, true, nil
}

// Exists indique si le résultat d'une opération est déjà enregistré
func (s *ResultService) Exists(ctx context.Context, operation string) (bool, error) {
	path, err := ResultPath(operation)
	if err != nil {
		return false, err
	}
	return s.storage.Exists(ctx, path)
}

// URL retourne l'URL d'accès au résultat enregistré
func (s *ResultService) URL(ctx context.Context, operation string) (string, error) {
	path, err := ResultPath(operation)
	if err != nil {
		return "", err
	}
	return s.storage.GetURL(ctx, path)
}

// Delete supprime le résultat enregistré
func (s *ResultService) Delete(ctx context.Context, operation string) error {
	path, err := ResultPath(operation)
	if err != nil {
		return err
	}
	return s.storage.Delete(ctx, path)
}

// List retourne les opérations dont le résultat est enregistré
func (s *ResultService) List(ctx context.Context) ([]string, error) {
	keys, err := s.storage.List(ctx, resultsPrefix)
	if err != nil {
		return nil, err
	}

	var operations []string
	for _, key := range keys {
		op := strings.TrimSuffix(strings.TrimPrefix(key, resultsPrefix), ".mp4")
		if op != "" {
			operations = append(operations, op)
		}
	}
	return operations, nil
}

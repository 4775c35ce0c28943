// internal/store/file.go
package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	apperrors "loan-journey/internal/common/errors"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/models"

	"github.com/spf13/afero"
)

const DefaultFilePath = "data/applications.jsonl"

// FileStore appends each application as one JSON line to a local file.
// It is the client-local backend of the loan assistant: a chat run and a
// later -admin run see the same applications.
type FileStore struct {
	mu     sync.Mutex
	fs     afero.Fs
	path   string
	logger logger.Logger
	now    func() time.Time
}

func NewFileStore(fs afero.Fs, path string, log logger.Logger) (*FileStore, error) {
	if path == "" {
		path = DefaultFilePath
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{
		fs:     fs,
		path:   path,
		logger: log.WithFields(map[string]interface{}{"store": "file", "path": path}),
		now:    time.Now,
	}, nil
}

func (f *FileStore) Persist(_ context.Context, rec models.ApplicationRecord, status models.ApplicationStatus,
	sanction *models.SanctionRecord, rejectionReason string) (string, error) {
	app := newStoredApplication(f.now(), rec, status, sanction, rejectionReason)

	doc, err := json.Marshal(app)
	if err != nil {
		return "", fmt.Errorf("%w: marshal application: %v", apperrors.ErrStorePersistFailed, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := f.fs.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorePersistFailed, err)
	}
	if _, err := file.Write(append(doc, '\n')); err != nil {
		file.Close()
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorePersistFailed, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorePersistFailed, err)
	}

	f.logger.Info("application stored", map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
	})
	return app.ID, nil
}

func (f *FileStore) ListAll(_ context.Context) ([]models.StoredApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := f.fs.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.StoredApplication{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreReadFailed, err)
	}
	defer file.Close()

	apps := []models.StoredApplication{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var app models.StoredApplication
		if err := json.Unmarshal(scanner.Bytes(), &app); err != nil {
			return nil, fmt.Errorf("%w: decode line %d: %v", apperrors.ErrStoreReadFailed, line, err)
		}
		apps = append(apps, app)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreReadFailed, err)
	}
	return apps, nil
}

func (f *FileStore) GetByID(ctx context.Context, id string) (*models.StoredApplication, error) {
	apps, err := f.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if apps[i].ID == id {
			return &apps[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", apperrors.ErrApplicationNotFound, id)
}

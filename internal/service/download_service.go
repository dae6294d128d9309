package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "datamarket/internal/errors"
	"datamarket/internal/model"
	"datamarket/internal/repository"
	"datamarket/internal/storage"
)

// DownloadURLTTL bounds how long a presigned link stays usable.
const DownloadURLTTL = 15 * time.Minute

// Requester identifies who is asking for files.
type Requester struct {
	UserID  uint
	IsAdmin bool
}

// FileLink is one downloadable file of a dataset.
type FileLink struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// FileStream is an opened dataset file. The caller closes Body.
type FileStream struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

// DownloadService gates file access on entitlement.
type DownloadService interface {
	GetDownloadLinks(ctx context.Context, who Requester, datasetID uint) ([]FileLink, error)
	OpenFile(ctx context.Context, who Requester, datasetID uint, index int) (*FileStream, error)
}

type downloadService struct {
	datasets  repository.DatasetRepository
	purchases PurchaseService
	store     storage.Storage
	baseURL   string
}

// NewDownloadService builds a DownloadService. baseURL prefixes stream links
// for backends that cannot presign.
func NewDownloadService(
	datasets repository.DatasetRepository,
	purchases PurchaseService,
	store storage.Storage,
	baseURL string,
) DownloadService {
	return &downloadService{
		datasets:  datasets,
		purchases: purchases,
		store:     store,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

func (s *downloadService) GetDownloadLinks(ctx context.Context, who Requester, datasetID uint) ([]FileLink, error) {
	dataset, files, err := s.authorize(ctx, who, datasetID)
	if err != nil {
		return nil, err
	}

	links := make([]FileLink, 0, len(files))
	for i, key := range files {
		url, err := s.store.URL(ctx, key, DownloadURLTTL)
		if err != nil {
			return nil, fmt.Errorf("resolve download url: %w", err)
		}
		if url == "" {
			url = fmt.Sprintf("%s/api/datasets/%d/files/%d", s.baseURL, dataset.ID, i)
		}
		links = append(links, FileLink{Index: i, Name: DisplayName(key), URL: url})
	}
	return links, nil
}

func (s *downloadService) OpenFile(ctx context.Context, who Requester, datasetID uint, index int) (*FileStream, error) {
	_, files, err := s.authorize(ctx, who, datasetID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(files) {
		return nil, fmt.Errorf("%w: file %d of dataset %d", apperrors.ErrNotFound, index, datasetID)
	}

	key := files[index]
	body, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: file %d of dataset %d", apperrors.ErrNotFound, index, datasetID)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}

	name := DisplayName(key)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &FileStream{Name: name, ContentType: contentType, Body: body}, nil
}

// authorize checks the entitlement before touching the dataset so that
// unentitled callers cannot probe which ids exist.
func (s *downloadService) authorize(ctx context.Context, who Requester, datasetID uint) (*model.Dataset, []string, error) {
	if !who.IsAdmin {
		ok, err := s.purchases.HasPurchased(ctx, who.UserID, datasetID)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, apperrors.ErrNotPurchased
		}
	}

	dataset, err := s.datasets.FindByID(ctx, datasetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: dataset %d", apperrors.ErrNotFound, datasetID)
		}
		return nil, nil, fmt.Errorf("find dataset: %w", err)
	}

	files := dataset.Files()
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w: dataset %d has no files", apperrors.ErrNotFound, datasetID)
	}
	return dataset, files, nil
}

// DisplayName strips the uniqueness prefix that storage.NewDatasetKey adds.
func DisplayName(key string) string {
	base := path.Base(key)
	// <nanos>_<uuid8>_<name>
	parts := strings.SplitN(base, "_", 3)
	if len(parts) == 3 && len(parts[1]) == 8 && isDigits(parts[0]) {
		return parts[2]
	}
	return base
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo        ports.DocumentRepository
	storage     ports.ObjectStorage
	queue       ports.MessageQueue
	fetcher     ports.WebFetcher
	transcripts ports.TranscriptFetcher
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	fetcher ports.WebFetcher,
	transcripts ports.TranscriptFetcher,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:        repo,
		storage:     storage,
		queue:       queue,
		fetcher:     fetcher,
		transcripts: transcripts,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	userID, filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("user_id is required"))
	}
	if strings.TrimSpace(filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("filename is required"))
	}
	return uc.ingest(ctx, userID, filename, mimeType, "", body)
}

// IngestURL downloads a web page and queues it like an uploaded file.
func (uc *IngestDocumentUseCase) IngestURL(ctx context.Context, userID, rawURL string) (*domain.Document, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest url", errors.New("user_id is required"))
	}
	if uc.fetcher == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest url", errors.New("web ingestion is not configured"))
	}

	body, contentType, err := uc.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch web page: %w", err)
	}
	if contentType == "" {
		contentType = "text/html"
	}
	return uc.ingest(ctx, userID, FilenameFromURL(rawURL, contentType), contentType, rawURL, bytes.NewReader(body))
}

// IngestTranscript stores a video's caption text as a plain-text document
// named after the video title.
func (uc *IngestDocumentUseCase) IngestTranscript(ctx context.Context, userID, videoURL string) (*domain.Document, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest transcript", errors.New("user_id is required"))
	}
	if uc.transcripts == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest transcript", errors.New("transcript ingestion is not configured"))
	}

	tr, err := uc.transcripts.FetchTranscript(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}
	name := tr.Title
	if strings.TrimSpace(name) == "" {
		name = tr.VideoID
	}
	name = strings.ReplaceAll(name, "/", "_")
	return uc.ingest(ctx, userID, sanitizeFilename(name)+".txt", "text/plain", videoURL, strings.NewReader(tr.Text))
}

func (uc *IngestDocumentUseCase) ingest(
	ctx context.Context,
	userID, filename, mimeType, sourceURL string,
	body io.Reader,
) (*domain.Document, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s/%s_%s", sanitizeFilename(userID), id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		UserID:      userID,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		SourceURL:   sourceURL,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

// FilenameFromURL derives a stable display name from host and path.
func FilenameFromURL(rawURL, contentType string) string {
	ext := ".html"
	if strings.HasPrefix(strings.ToLower(contentType), "text/plain") {
		ext = ".txt"
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "web_page" + ext
	}
	path := strings.Trim(u.Path, "/")
	path = strings.TrimSuffix(path, filepath.Ext(path))
	name := u.Host
	if path != "" {
		name += "_" + strings.ReplaceAll(path, "/", "_")
	}
	return sanitizeFilename(name) + ext
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "document.bin"
	}
	return base
}

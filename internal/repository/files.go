package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/opencase-io/opencase/internal/docstore"
	"github.com/opencase-io/opencase/internal/models"
)

// FileRegistry owns the files and file_data collections. Metadata and payload
// are stored as separate documents so listings never pull payload bytes.
type FileRegistry struct {
	store docstore.Store
}

// NewFileRegistry creates a file registry over the given store.
func NewFileRegistry(store docstore.Store) *FileRegistry {
	return &FileRegistry{store: store}
}

// Store persists attachment metadata plus payload for the case. The stored
// filename is the generated id with the original extension, mirroring how the
// upload directory used to be laid out.
func (r *FileRegistry) Store(ctx context.Context, caseID, originalFilename, mimeType, uploadedBy string, payload []byte) (*models.FileAttachment, error) {
	id := newID()
	f := &models.FileAttachment{
		ID:               id,
		CaseID:           caseID,
		Filename:         id + filepath.Ext(originalFilename),
		OriginalFilename: originalFilename,
		FileSize:         int64(len(payload)),
		MimeType:         mimeType,
		UploadedBy:       uploadedBy,
		UploadedAt:       time.Now().UTC(),
	}

	if err := r.store.Index(ctx, docstore.CollectionFiles, f.ID, f); err != nil {
		return nil, fmt.Errorf("failed to store file metadata: %w", err)
	}
	data := &models.FilePayload{ID: f.ID, CaseID: caseID, Data: payload}
	if err := r.store.Index(ctx, docstore.CollectionFileData, f.ID, data); err != nil {
		return nil, fmt.Errorf("failed to store file payload: %w", err)
	}
	return f, nil
}

// ListByCase returns attachment metadata for the case, newest first.
func (r *FileRegistry) ListByCase(ctx context.Context, caseID string) ([]*models.FileAttachment, error) {
	raws, _, err := r.store.Search(ctx, docstore.CollectionFiles,
		docstore.Query{Terms: map[string]string{"case_id": caseID}},
		docstore.Sort{Field: "uploaded_at", Desc: true}, 0, 1000)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	files := make([]*models.FileAttachment, 0, len(raws))
	for _, raw := range raws {
		var f models.FileAttachment
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("failed to decode file metadata: %w", err)
		}
		files = append(files, &f)
	}
	return files, nil
}

// GetForDownload returns metadata together with the payload bytes.
func (r *FileRegistry) GetForDownload(ctx context.Context, id string) (*models.FileAttachment, []byte, error) {
	meta, err := r.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	raw, err := r.store.Get(ctx, docstore.CollectionFileData, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("failed to get file payload: %w", err)
	}
	var payload models.FilePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, fmt.Errorf("failed to decode file payload: %w", err)
	}
	return meta, payload.Data, nil
}

// Delete removes metadata and payload, returning the owning case id so the
// caller can recompute that case's counters.
func (r *FileRegistry) Delete(ctx context.Context, id string) (string, error) {
	meta, err := r.get(ctx, id)
	if err != nil {
		return "", err
	}

	if err := r.store.Delete(ctx, docstore.CollectionFiles, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("failed to delete file metadata: %w", err)
	}
	// The payload may already be gone; metadata is the source of truth.
	if err := r.store.Delete(ctx, docstore.CollectionFileData, id); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return "", fmt.Errorf("failed to delete file payload: %w", err)
	}
	return meta.CaseID, nil
}

// DeleteByCase removes every attachment (metadata and payload) referencing
// the case.
func (r *FileRegistry) DeleteByCase(ctx context.Context, caseID string) (int, error) {
	q := docstore.Query{Terms: map[string]string{"case_id": caseID}}
	n, err := r.store.DeleteByQuery(ctx, docstore.CollectionFiles, q)
	if err != nil {
		return 0, fmt.Errorf("failed to delete case files: %w", err)
	}
	if _, err := r.store.DeleteByQuery(ctx, docstore.CollectionFileData, q); err != nil {
		return n, fmt.Errorf("failed to delete case file payloads: %w", err)
	}
	return n, nil
}

// CountByCase returns the live number of attachments referencing the case.
func (r *FileRegistry) CountByCase(ctx context.Context, caseID string) (int, error) {
	n, err := r.store.Count(ctx, docstore.CollectionFiles,
		docstore.Query{Terms: map[string]string{"case_id": caseID}})
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return n, nil
}

func (r *FileRegistry) get(ctx context.Context, id string) (*models.FileAttachment, error) {
	raw, err := r.store.Get(ctx, docstore.CollectionFiles, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file metadata: %w", err)
	}
	var f models.FileAttachment
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to decode file metadata: %w", err)
	}
	return &f, nil
}

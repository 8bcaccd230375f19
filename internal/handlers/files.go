package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opencase-io/opencase/internal/httputil"
)

// Multipart uploads are buffered in memory up to this size before spilling
// to disk.
const maxUploadMemory = 32 << 20

// UploadFile handles POST /api/cases/{id}/files. The file arrives as the
// "file" multipart form field; "uploaded_by" is optional and defaults to
// anonymous.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	uploadedBy := r.FormValue("uploaded_by")
	if uploadedBy == "" {
		uploadedBy = "anonymous"
	}

	attachment, err := h.cases.UploadFile(r.Context(), chi.URLParam(r, "id"),
		header.Filename, header.Header.Get("Content-Type"), uploadedBy, payload)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, attachment)
}

// ListFiles handles GET /api/cases/{id}/files.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.cases.ListFiles(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, files)
}

// DownloadFile handles GET /api/files/{id}/download, streaming the stored
// bytes with the original filename and mime type.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	meta, data, err := h.cases.DownloadFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	contentType := meta.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", meta.OriginalFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.WarnContext(r.Context(), "failed to stream attachment",
			"file_id", meta.ID, "error", err)
	}
}

// DeleteFile handles DELETE /api/files/{id}.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.cases.DeleteFile(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "File deleted successfully",
	})
}

package httpadapter

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/oapi-codegen/runtime"
)

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.services.Ingest == nil {
		notImplemented(w)
		return
	}
	userID := mux.Vars(r)["user_id"]

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.services.Ingest.Upload(
		r.Context(),
		userID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeDomainError(w, r, "upload_document", err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) ingestWebPage(w http.ResponseWriter, r *http.Request) {
	if rt.services.Ingest == nil {
		notImplemented(w)
		return
	}
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	doc, err := rt.services.Ingest.IngestURL(r.Context(), mux.Vars(r)["user_id"], req.URL)
	if err != nil {
		writeDomainError(w, r, "ingest_web_page", err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) ingestTranscript(w http.ResponseWriter, r *http.Request) {
	if rt.services.Ingest == nil {
		notImplemented(w)
		return
	}
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	doc, err := rt.services.Ingest.IngestTranscript(r.Context(), mux.Vars(r)["user_id"], req.URL)
	if err != nil {
		writeDomainError(w, r, "ingest_transcript", err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	if rt.services.Documents == nil {
		notImplemented(w)
		return
	}
	vars := mux.Vars(r)
	doc, err := rt.services.Documents.GetDocument(r.Context(), vars["user_id"], vars["document_id"])
	if err != nil {
		writeDomainError(w, r, "get_document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) setSelection(w http.ResponseWriter, r *http.Request) {
	if rt.services.Manager == nil {
		notImplemented(w)
		return
	}
	var req struct {
		Selected *bool `json:"selected"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Selected == nil {
		writeError(w, http.StatusBadRequest, "field 'selected' is required")
		return
	}

	vars := mux.Vars(r)
	if err := rt.services.Manager.SetSelected(r.Context(), vars["user_id"], vars["document_id"], *req.Selected); err != nil {
		writeDomainError(w, r, "set_selection", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) listChunks(w http.ResponseWriter, r *http.Request) {
	if rt.services.Documents == nil {
		notImplemented(w)
		return
	}
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit: "+err.Error())
		return
	}

	vars := mux.Vars(r)
	chunks, err := rt.services.Documents.ListChunks(r.Context(), vars["user_id"], vars["document_id"], limit)
	if err != nil {
		writeDomainError(w, r, "list_chunks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chunks": chunks,
		"count":  len(chunks),
	})
}

func (rt *Router) deleteEmbeddings(w http.ResponseWriter, r *http.Request) {
	if rt.services.Manager == nil {
		notImplemented(w)
		return
	}
	var documentID string
	if err := runtime.BindQueryParameter("form", true, false, "document_id", r.URL.Query(), &documentID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid document_id: "+err.Error())
		return
	}

	deleted, err := rt.services.Manager.DeleteEmbeddings(r.Context(), mux.Vars(r)["user_id"], documentID)
	if err != nil {
		writeDomainError(w, r, "delete_embeddings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

package httpadapter

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	if rt.services.Query == nil {
		notImplemented(w)
		return
	}
	var req domain.Question
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	start := time.Now()
	answer, err := rt.services.Query.Answer(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, "query", err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAnswer(serviceName, "query", answer.Retrieved, len(answer.Unresolved), answer.Summary, time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) mindmap(w http.ResponseWriter, r *http.Request) {
	if rt.services.Mindmap == nil {
		notImplemented(w)
		return
	}
	var req domain.MindmapRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	start := time.Now()
	mindmap, err := rt.services.Mindmap.Build(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, "mindmap", err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordMindmap(serviceName, mindmap.ClusterCount, mindmap.FailedClusters, time.Since(start))
	}
	writeJSON(w, http.StatusOK, mindmap)
}

func (rt *Router) startRecall(w http.ResponseWriter, r *http.Request) {
	if rt.services.Recall == nil {
		notImplemented(w)
		return
	}
	var req struct {
		UserID string `json:"user_id"`
		Topic  string `json:"topic"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	start, err := rt.services.Recall.Start(r.Context(), req.UserID, req.Topic)
	if err != nil {
		writeDomainError(w, r, "start_recall", err)
		return
	}
	rt.recordRecall("start")
	writeJSON(w, http.StatusCreated, start)
}

func (rt *Router) answerRecall(w http.ResponseWriter, r *http.Request) {
	if rt.services.Recall == nil {
		notImplemented(w)
		return
	}
	var req struct {
		UserAnswer string `json:"user_answer"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	feedback, err := rt.services.Recall.Answer(r.Context(), mux.Vars(r)["session_id"], req.UserAnswer)
	if err != nil {
		writeDomainError(w, r, "answer_recall", err)
		return
	}
	rt.recordRecall("answer")
	writeJSON(w, http.StatusOK, feedback)
}

func (rt *Router) getRecall(w http.ResponseWriter, r *http.Request) {
	if rt.services.Recall == nil {
		notImplemented(w)
		return
	}
	session, err := rt.services.Recall.Get(r.Context(), mux.Vars(r)["session_id"])
	if err != nil {
		writeDomainError(w, r, "get_recall", err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (rt *Router) endRecall(w http.ResponseWriter, r *http.Request) {
	if rt.services.Recall == nil {
		notImplemented(w)
		return
	}
	if err := rt.services.Recall.End(r.Context(), mux.Vars(r)["session_id"]); err != nil {
		writeDomainError(w, r, "end_recall", err)
		return
	}
	rt.recordRecall("end")
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) recordRecall(action string) {
	if rt.metrics != nil {
		rt.metrics.RecordRecall(serviceName, action)
	}
}

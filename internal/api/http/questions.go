package http

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-mcsaon/internal/bank"
	"github.com/mind-engage/mindengage-mcsaon/internal/eventlog"
	"github.com/mind-engage/mindengage-mcsaon/internal/grading"
	"github.com/mind-engage/mindengage-mcsaon/internal/question"
	"github.com/mind-engage/mindengage-mcsaon/internal/rbac"
	"github.com/mind-engage/mindengage-mcsaon/internal/restore"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondErr maps domain errors onto status codes.
func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bank.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, question.ErrUnknownMode):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, grading.ErrSingleModeUnsupported):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func questionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// POST /questions
func SaveQuestionHandler(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var def question.Definition
		if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		res, err := svc.Save(r.Context(), def)
		if err != nil {
			respondErr(w, err)
			return
		}
		if !res.Validation.Accepted {
			respondJSON(w, http.StatusUnprocessableEntity, res)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// POST /questions/validate
func ValidateQuestionHandler(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var def question.Definition
		if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		v, msg := svc.Validate(def)
		respondJSON(w, http.StatusOK, bank.SaveResult{Validation: v, Notice: msg})
	}
}

// GET /questions?q=&limit=&offset=
func ListQuestionsHandler(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), bank.ListOpts{
			Q:      strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /questions/{id}
// Editors get the full definition. Everyone else gets the student view with
// options shuffled when the question asks for it; ?seed= fixes the order.
func GetQuestionHandler(svc *bank.Service, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := questionID(w, r)
		if !ok {
			return
		}
		def, err := svc.Get(r.Context(), id)
		if err != nil {
			respondErr(w, err)
			return
		}
		if checker.Can(r, rbac.PermQuestionEdit) {
			respondJSON(w, http.StatusOK, def)
			return
		}
		seed := time.Now().UnixNano()
		if s := r.URL.Query().Get("seed"); s != "" {
			if v, err := strconv.ParseInt(s, 10, 64); err == nil {
				seed = v
			}
		}
		view := def.Shuffled(rand.New(rand.NewSource(seed))).StudentView()
		respondJSON(w, http.StatusOK, view)
	}
}

// DELETE /questions/{id}
func DeleteQuestionHandler(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := questionID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			respondErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type gradeReq struct {
	Selected []string          `json:"selected,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"` // choice0..choiceN, stored order
}

// POST /questions/{id}/grade
func GradeHandler(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := questionID(w, r)
		if !ok {
			return
		}
		var req gradeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		def, err := svc.Get(r.Context(), id)
		if err != nil {
			respondErr(w, err)
			return
		}
		resp := question.Selection(req.Selected...)
		for optID := range question.PositionalResponse(def, req.Fields) {
			resp[optID] = true
		}
		res, err := svc.GradeDefinition(r.Context(), def, resp)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// GET /questions/{id}/responses
func ResponsesHandler(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := questionID(w, r)
		if !ok {
			return
		}
		def, err := svc.Get(r.Context(), id)
		if err != nil {
			respondErr(w, err)
			return
		}
		classes, err := grading.PossibleResponses(def)
		if err != nil {
			respondErr(w, err)
			return
		}
		out := map[string]any{"classes": classes}
		if score, ok := grading.RandomGuessScore(def); ok {
			out["random_guess_score"] = score
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// POST /questions/{id}/duplicate
func DuplicateHandler(rs *restore.Restorer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := questionID(w, r)
		if !ok {
			return
		}
		def, err := rs.Duplicate(r.Context(), id)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, def)
	}
}

// GET /questions/{id}/events?after=&limit=
func EventsHandler(ev eventlog.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := questionID(w, r)
		if !ok {
			return
		}
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		list, err := ev.Since(r.Context(), after, id, parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

package devserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/id"
)

type handlers struct {
	store      *Store
	tokens     id.Generator
	bcryptCost int
	logger     *slog.Logger
}

// ─── auth ───

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	if blank(req.Name, req.Email, req.Password) {
		writeMessage(w, http.StatusBadRequest, "Please add all fields")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.store.CreateUser(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), string(hash))
	if errors.Is(err, apperrors.ErrConflict) {
		writeMessage(w, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.issueToken(w, r, http.StatusCreated, user)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.store.UserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		h.fail(w, r, err)
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	h.issueToken(w, r, http.StatusOK, user)
}

func (h *handlers) issueToken(w http.ResponseWriter, r *http.Request, status int, user User) {
	token := h.tokens.New()
	if err := h.store.SaveToken(r.Context(), token, user.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, authResponse{ID: user.ID, Name: user.Name, Email: user.Email, Token: token})
}

// ─── subjects ───

type subjectRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

type nameRequest struct {
	Name string `json:"name"`
}

func (h *handlers) listSubjects(w http.ResponseWriter, r *http.Request) {
	if !h.sameUser(w, r, chi.URLParam(r, "userId")) {
		return
	}
	subjects, err := h.store.ListSubjects(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (h *handlers) createSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if !decode(w, r, &req) {
		return
	}
	if req.UserID != "" && !h.sameUser(w, r, req.UserID) {
		return
	}
	if blank(req.Name) {
		writeMessage(w, http.StatusBadRequest, "Subject name is required")
		return
	}
	if blank(req.Color) {
		req.Color = "#3b82f6"
	}
	subject, err := h.store.CreateSubject(r.Context(), userIDFrom(r.Context()), strings.TrimSpace(req.Name), req.Color)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, subject)
}

func (h *handlers) deleteSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.ownedSubject(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteSubject(r.Context(), subjectID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Subject deleted")
}

func (h *handlers) setSubjectColor(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.ownedSubject(w, r)
	if !ok {
		return
	}
	var req subjectRequest
	if !decode(w, r, &req) {
		return
	}
	if blank(req.Color) {
		writeMessage(w, http.StatusBadRequest, "Color is required")
		return
	}
	h.respondSubject(w, r)(h.store.SetSubjectColor(r.Context(), subjectID, req.Color))
}

func (h *handlers) addSection(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.ownedSubject(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	if blank(req.Name) {
		writeMessage(w, http.StatusBadRequest, "Section name is required")
		return
	}
	h.respondSubject(w, r)(h.store.AddSection(r.Context(), subjectID, strings.TrimSpace(req.Name)))
}

func (h *handlers) deleteSection(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.ownedSubject(w, r)
	if !ok {
		return
	}
	h.respondSubject(w, r)(h.store.DeleteSection(r.Context(), subjectID, chi.URLParam(r, "sectionId")))
}

func (h *handlers) addTopic(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.ownedSubject(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	if blank(req.Name) {
		writeMessage(w, http.StatusBadRequest, "Topic name is required")
		return
	}
	h.respondSubject(w, r)(h.store.AddTopic(r.Context(), subjectID, chi.URLParam(r, "sectionId"), strings.TrimSpace(req.Name)))
}

func (h *handlers) deleteTopic(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := h.ownedSubject(w, r)
	if !ok {
		return
	}
	h.respondSubject(w, r)(h.store.DeleteTopic(r.Context(), subjectID, chi.URLParam(r, "sectionId"), chi.URLParam(r, "topicId")))
}

func (h *handlers) ownedSubject(w http.ResponseWriter, r *http.Request) (string, bool) {
	subjectID := chi.URLParam(r, "subjectId")
	subject, err := h.store.Subject(r.Context(), subjectID)
	if err != nil {
		h.fail(w, r, err)
		return "", false
	}
	if subject.UserID != userIDFrom(r.Context()) {
		writeMessage(w, http.StatusNotFound, "Subject not found")
		return "", false
	}
	return subjectID, true
}

func (h *handlers) respondSubject(w http.ResponseWriter, r *http.Request) func(Subject, error) {
	return func(subject Subject, err error) {
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, subject)
	}
}

// ─── weekly goals ───

type goalRequest struct {
	UserID    string      `json:"userId"`
	Subject   string      `json:"subject"`
	Color     string      `json:"color"`
	WeekStart time.Time   `json:"weekStart"`
	WeekEnd   time.Time   `json:"weekEnd"`
	Topics    []GoalTopic `json:"topics"`
}

type titleRequest struct {
	Title string `json:"title"`
}

func (h *handlers) listGoals(w http.ResponseWriter, r *http.Request) {
	if !h.sameUser(w, r, chi.URLParam(r, "userId")) {
		return
	}
	from, okFrom := parseQueryTime(r, "weekStart")
	to, okTo := parseQueryTime(r, "weekEnd")
	if !okFrom || !okTo {
		writeMessage(w, http.StatusBadRequest, "Invalid week range")
		return
	}
	goals, err := h.store.ListGoals(r.Context(), userIDFrom(r.Context()), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *handlers) createGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !decode(w, r, &req) {
		return
	}
	if req.UserID != "" && !h.sameUser(w, r, req.UserID) {
		return
	}
	if blank(req.Subject) || req.WeekStart.IsZero() || req.WeekEnd.IsZero() {
		writeMessage(w, http.StatusBadRequest, "Subject, weekStart and weekEnd are required")
		return
	}
	topics := make([]GoalTopic, 0, len(req.Topics))
	for _, t := range req.Topics {
		if !blank(t.Title) {
			topics = append(topics, GoalTopic{Title: strings.TrimSpace(t.Title), Completed: t.Completed})
		}
	}
	goal, err := h.store.CreateGoal(r.Context(), Goal{
		UserID:    userIDFrom(r.Context()),
		Subject:   strings.TrimSpace(req.Subject),
		Color:     req.Color,
		WeekStart: req.WeekStart,
		WeekEnd:   req.WeekEnd,
		Topics:    topics,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (h *handlers) updateGoal(w http.ResponseWriter, r *http.Request) {
	goalID, ok := h.ownedGoal(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if !decode(w, r, &req) {
		return
	}
	if blank(req.Subject) {
		writeMessage(w, http.StatusBadRequest, "Subject is required")
		return
	}
	h.respondGoal(w, r)(h.store.UpdateGoal(r.Context(), goalID, strings.TrimSpace(req.Subject), req.Color))
}

func (h *handlers) deleteGoal(w http.ResponseWriter, r *http.Request) {
	goalID, ok := h.ownedGoal(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteGoal(r.Context(), goalID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Weekly goal deleted")
}

func (h *handlers) addGoalTopic(w http.ResponseWriter, r *http.Request) {
	goalID, ok := h.ownedGoal(w, r)
	if !ok {
		return
	}
	var req titleRequest
	if !decode(w, r, &req) {
		return
	}
	if blank(req.Title) {
		writeMessage(w, http.StatusBadRequest, "Topic title is required")
		return
	}
	h.respondGoal(w, r)(h.store.AddGoalTopic(r.Context(), goalID, strings.TrimSpace(req.Title)))
}

func (h *handlers) toggleGoalTopic(w http.ResponseWriter, r *http.Request) {
	goalID, ok := h.ownedGoal(w, r)
	if !ok {
		return
	}
	h.respondGoal(w, r)(h.store.ToggleGoalTopic(r.Context(), goalID, chi.URLParam(r, "topicId")))
}

func (h *handlers) deleteGoalTopic(w http.ResponseWriter, r *http.Request) {
	goalID, ok := h.ownedGoal(w, r)
	if !ok {
		return
	}
	h.respondGoal(w, r)(h.store.DeleteGoalTopic(r.Context(), goalID, chi.URLParam(r, "topicId")))
}

func (h *handlers) ownedGoal(w http.ResponseWriter, r *http.Request) (string, bool) {
	goalID := chi.URLParam(r, "goalId")
	goal, err := h.store.Goal(r.Context(), goalID)
	if err != nil {
		h.fail(w, r, err)
		return "", false
	}
	if goal.UserID != userIDFrom(r.Context()) {
		writeMessage(w, http.StatusNotFound, "Weekly goal not found")
		return "", false
	}
	return goalID, true
}

func (h *handlers) respondGoal(w http.ResponseWriter, r *http.Request) func(Goal, error) {
	return func(goal Goal, err error) {
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, goal)
	}
}

// ─── shared ───

func (h *handlers) sameUser(w http.ResponseWriter, r *http.Request, userID string) bool {
	if userID != userIDFrom(r.Context()) {
		writeMessage(w, http.StatusForbidden, "Not authorized for this user")
		return false
	}
	return true
}

// fail maps store errors to statuses; anything unexpected is logged and
// reported without detail.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, apperrors.ErrConflict):
		writeMessage(w, http.StatusConflict, "Conflict")
	default:
		h.logger.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// parseQueryTime accepts an absent value as zero.
func parseQueryTime(r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

package remote

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"fedsearch/internal/repository"
)

// Handler serves one repository.Connection over HTTP.
type Handler struct {
	conn   repository.Connection
	token  string
	logger *slog.Logger
	router chi.Router
}

type HandlerOption func(*Handler)

// RequireToken rejects requests whose bearer token differs from token.
func RequireToken(token string) HandlerOption {
	return func(h *Handler) {
		h.token = token
	}
}

func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(conn repository.Connection, opts ...HandlerOption) *Handler {
	h := &Handler{conn: conn, logger: slog.Default()}
	for _, apply := range opts {
		if apply != nil {
			apply(h)
		}
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(h.authenticate)
	r.Post("/execute", h.execute)
	r.Get("/classes/{table}", h.classByTable)
	r.Get("/classes/{classID}/objects/{id}", h.fetchByID)
	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Statement) == "" {
		writeError(w, http.StatusBadRequest, "request must carry a statement")
		return
	}
	h.logger.Debug("executing statement", "statement", req.Statement)

	rows, err := h.conn.Execute(r.Context(), req.Statement)
	if err != nil {
		h.logger.Info("statement failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, executeResponse{Rows: rows})
}

func (h *Handler) classByTable(w http.ResponseWriter, r *http.Request) {
	cd, err := h.conn.ClassByTable(r.Context(), requestUser(r), chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cd)
}

func (h *Handler) fetchByID(w http.ResponseWriter, r *http.Request) {
	classID, err := strconv.Atoi(chi.URLParam(r, "classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "class id must be an integer")
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "object id must be an integer")
		return
	}
	table := r.URL.Query().Get("table")
	if table == "" {
		writeError(w, http.StatusBadRequest, "table is required")
		return
	}

	obj, err := h.conn.FetchByID(r.Context(), requestUser(r), id, repository.ClassDescriptor{ID: classID, Table: table})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if obj == nil {
		writeError(w, http.StatusNotFound, msgObjectNotFound)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func requestUser(r *http.Request) repository.User {
	q := r.URL.Query()
	return repository.User{Name: q.Get("user"), Domain: repository.Domain(q.Get("user_domain"))}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

package web

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"ai-portrait-studio/internal/studio"
	"ai-portrait-studio/internal/style"
)

const (
	sessionCookie    = "psid"
	downloadFilename = "ai_portrait.png"

	// The reader cap sits well above the upload ceiling so oversized files
	// reach the validator and get a size-specific rejection instead of a
	// truncated-form error.
	maxRequestBytes = 32 << 20
)

type Options struct {
	Controller      *studio.Controller
	Logger          *slog.Logger
	GenerateTimeout time.Duration
	Static          fs.FS
}

type Server struct {
	controller      *studio.Controller
	logger          *slog.Logger
	generateTimeout time.Duration
	static          fs.FS
}

type apiError struct {
	Error string `json:"error"`
}

type styleView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type sessionView struct {
	Phase      string `json:"phase"`
	Preview    string `json:"preview,omitempty"`
	Style      string `json:"style"`
	Custom     string `json:"custom,omitempty"`
	Generating bool   `json:"generating"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
	HasResult  bool   `json:"has_result"`
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := opts.GenerateTimeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}

	return &Server{
		controller:      opts.Controller,
		logger:          logger,
		generateTimeout: timeout,
		static:          opts.Static,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/styles", s.handleStyles)
		r.Post("/upload", s.handleUpload)
		r.Get("/session", s.handleSession)
		r.Post("/session", s.handleSelect)
		r.Post("/generate", s.handleGenerate)
		r.Get("/result", s.handleResult)
		r.Post("/reset", s.handleReset)
		r.Post("/error/dismiss", s.handleDismissError)
	})

	if s.static != nil {
		r.Handle("/*", http.FileServer(http.FS(s.static)))
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	catalog := style.Catalog()
	out := make([]styleView, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, styleView{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxRequestBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing image"})
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	sess, err := s.controller.AttachUpload(id, mimeType, header.Size, file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	writeJSON(w, http.StatusOK, viewOf(s.controller.Session(id)))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	var req struct {
		Style  *string `json:"style"`
		Custom *string `json:"custom"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON body"})
		return
	}

	var sess studio.Session
	if req.Style != nil {
		var err error
		sess, err = s.controller.SelectStyle(id, strings.TrimSpace(*req.Style))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
	}
	if req.Custom != nil {
		sess = s.controller.SetFreeText(id, *req.Custom)
	}
	if req.Style == nil && req.Custom == nil {
		sess = s.controller.Session(id)
	}

	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	sess, err := s.controller.StartGeneration(id, s.generateTimeout)
	if err != nil {
		writeJSON(w, http.StatusConflict, apiError{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, viewOf(sess))
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	sess := s.controller.Session(id)
	if !sess.HasResult() {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no generated portrait yet"})
		return
	}

	data, err := base64.StdEncoding.DecodeString(sess.ResultBase64)
	if err != nil {
		s.logger.Error("result decode failed", "session", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "stored result is corrupt"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	writeJSON(w, http.StatusOK, viewOf(s.controller.Reset(id)))
}

func (s *Server) handleDismissError(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	writeJSON(w, http.StatusOK, viewOf(s.controller.DismissError(id)))
}

// sessionID reads the session cookie, issuing a fresh UUID when absent.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"dur_ms", time.Since(start).Milliseconds(),
		)
	})
}

func viewOf(sess studio.Session) sessionView {
	view := sessionView{
		Phase:      string(sess.Phase),
		Style:      sess.StyleID,
		Custom:     sess.FreeText,
		Generating: sess.Generating,
		Status:     sess.StatusMessage(),
		Error:      sess.ErrorMessage,
		HasResult:  sess.HasResult(),
	}
	if sess.Image != nil {
		view.Preview = sess.Image.DataURL
	}
	return view
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

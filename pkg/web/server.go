package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cexll/deckagent-go/pkg/chat"
	"github.com/cexll/deckagent-go/pkg/event"
	"github.com/cexll/deckagent-go/pkg/session"
)

const sessionCookie = "deckagent_session"

var allowedUploadExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Server exposes the chat workflow over HTTP: multipart chat turns, an SSE
// progress stream, composite download and session reset. One turn per
// session runs at a time; the relay owns the transcript while it runs.
type Server struct {
	chat      *chat.Chat
	store     session.Store
	relay     *event.Relay
	logger    *zap.Logger
	uploadDir string
	maxUpload int64

	mu   sync.Mutex
	runs map[string]*runHandle
}

// runHandle tracks one relay worker. done comes from the relay and closes
// when the worker has committed the transcript; claimed marks that a stream
// consumer has taken the event channel.
type runHandle struct {
	events  <-chan event.Event
	done    <-chan struct{}
	claimed bool
}

// finished reports whether the worker has committed and terminated. Only
// then may a new turn start on the same session.
func (h *runHandle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// NewServer constructs a Server. logger may be nil.
func NewServer(c *chat.Chat, store session.Store, uploadDir string, maxUpload int64, logger *zap.Logger) (*Server, error) {
	if c == nil {
		return nil, errors.New("web: chat is nil")
	}
	if store == nil {
		return nil, errors.New("web: session store is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	if maxUpload <= 0 {
		maxUpload = 16 << 20
	}
	return &Server{
		chat:      c,
		store:     store,
		relay:     event.NewRelay(store, logger),
		logger:    logger,
		uploadDir: uploadDir,
		maxUpload: maxUpload,
		runs:      make(map[string]*runHandle),
	}, nil
}

// Handler returns the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/chat/stream", s.handleStream)
	mux.HandleFunc("GET /api/download", s.handleDownload)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	return mux
}

// handleChat accepts a multipart turn and starts the relay worker. The reply
// text arrives through the stream's terminal event, not this response.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := s.ensureSession(w, r)

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse form: %s", err))
		return
	}
	message := strings.TrimSpace(r.FormValue("message"))
	if message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	var imagePaths []string
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files[]"] {
			path, err := s.saveUpload(sessionID, fh)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			imagePaths = append(imagePaths, path)
		}
	}

	if err := s.ensureStored(r.Context(), sessionID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	// Busy until the previous worker has committed, whether or not its
	// stream was ever consumed. A finished but unclaimed run is replaced.
	if h := s.runs[sessionID]; h != nil && !h.finished() {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "a request is already being processed for this session")
		return
	}
	// The worker outlives this request; it is bounded by the loop budgets.
	ch, done, err := s.relay.Run(context.Background(), sessionID, func(ctx context.Context, state *session.State, emit func(event.Event)) (map[string]any, error) {
		reply, err := s.chat.SendMessage(ctx, state, message, imagePaths, emit)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"response":       reply,
			"pptx_available": state.PPTXFile != "",
		}, nil
	})
	if err != nil {
		s.mu.Unlock()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.runs[sessionID] = &runHandle{events: ch, done: done}
	s.mu.Unlock()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "processing",
		"stream": "/api/chat/stream",
	})
}

// handleStream attaches the caller to the session's running turn and relays
// events as SSE until the worker closes the channel.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "no session cookie")
		return
	}

	s.mu.Lock()
	h := s.runs[sessionID]
	var ch <-chan event.Event
	if h != nil && !h.claimed {
		// Claim the channel but keep the handle: the session stays busy
		// until the worker commits, not until someone starts reading.
		h.claimed = true
		ch = h.events
	}
	s.mu.Unlock()
	if ch == nil {
		writeError(w, http.StatusNotFound, "no active request for this session")
		return
	}

	stream := event.NewStream(w)
	if err := stream.StreamEvents(r.Context(), ch); err != nil {
		s.logger.Warn("stream interrupted",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	state, err := s.store.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	if state.PPTXFile == "" {
		writeError(w, http.StatusNotFound, "no PPTX file generated yet")
		return
	}
	if _, err := os.Stat(state.PPTXFile); err != nil {
		writeError(w, http.StatusNotFound, "PPTX file not found on disk")
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(state.PPTXFile)))
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation")
	http.ServeFile(w, r, state.PPTXFile)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := s.sessionID(r); ok {
		s.mu.Lock()
		delete(s.runs, sessionID)
		s.mu.Unlock()
		if err := s.store.Delete(r.Context(), sessionID); err != nil {
			s.logger.Warn("delete session failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

func (s *Server) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if id, ok := s.sessionID(r); ok {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})
	return id
}

func (s *Server) ensureStored(ctx context.Context, sessionID string) error {
	_, err := s.store.Get(ctx, sessionID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("load session: %w", err)
	}
	state, err := session.NewState(sessionID)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, state)
}

// saveUpload validates and persists one uploaded image, namespaced by
// session so concurrent users cannot collide.
func (s *Server) saveUpload(sessionID string, fh *multipart.FileHeader) (string, error) {
	name := filepath.Base(fh.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedUploadExt[ext] {
		return "", fmt.Errorf("unsupported file type: %s", name)
	}
	if fh.Size > s.maxUpload {
		return "", fmt.Errorf("file too large: %s", name)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	dest := filepath.Join(s.uploadDir, sessionID+"_"+name)
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, io.LimitReader(src, s.maxUpload)); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return dest, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

package preview

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/yildizm/SignScan/internal/common"
	"github.com/yildizm/SignScan/internal/logger"
	"github.com/yildizm/SignScan/internal/metrics"
)

// DefaultListenAddr binds an ephemeral loopback port
const DefaultListenAddr = "127.0.0.1:0"

// ErrClosed is returned when creating a preview on a closed manager
var ErrClosed = errors.New("preview manager closed")

// Handle is a locally resolvable reference to the selected file
type Handle struct {
	ID       string           `json:"id"`
	URL      string           `json:"url"`
	Kind     common.MediaKind `json:"kind"`
	MIMEType string           `json:"type"`
	FileName string           `json:"file_name"`
}

// Manager owns every preview handle and the loopback server that resolves them
type Manager struct {
	mu       sync.RWMutex
	entries  map[string]common.SelectedFile
	released int
	closed   bool

	server   *http.Server
	listener net.Listener
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewManager creates a manager; previews resolve to file:// URLs until Serve is called
func NewManager(m *metrics.Metrics, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{
		entries: make(map[string]common.SelectedFile),
		metrics: m,
		logger:  log,
	}
}

// Handler returns the loopback router
func (m *Manager) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/preview/{id}", m.handlePreview)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.metrics.Handler())

	return r
}

// Serve starts the loopback server on addr
func (m *Manager) Serve(addr string) error {
	if addr == "" {
		addr = DefaultListenAddr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	m.mu.Lock()
	m.server = srv
	m.listener = ln
	m.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("preview server stopped: %v", err)
		}
	}()

	m.logger.Info("preview server listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, empty when not serving
func (m *Manager) Addr() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Create registers file and returns a handle for it. An unreadable file is an error
// and nothing is registered.
func (m *Manager) Create(file common.SelectedFile) (*Handle, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file.Name, err)
	}
	_ = src.Close()

	id := uuid.NewString()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.entries[id] = file
	base := ""
	if m.listener != nil {
		base = "http://" + m.listener.Addr().String()
	}
	m.mu.Unlock()

	m.metrics.PreviewCreated()
	m.logger.DebugWithFields("preview created", []logger.Field{logger.F("id", id), logger.File(file.Name)})

	return &Handle{
		ID:       id,
		URL:      previewURL(base, id, file),
		Kind:     file.Kind(),
		MIMEType: file.MIMEType,
		FileName: file.Name,
	}, nil
}

// Release unregisters the handle; it reports false if the handle was not live
func (m *Manager) Release(h *Handle) bool {
	if h == nil {
		return false
	}

	m.mu.Lock()
	_, ok := m.entries[h.ID]
	if ok {
		delete(m.entries, h.ID)
		m.released++
	}
	m.mu.Unlock()

	if !ok {
		m.logger.DebugWithFields("preview already released", []logger.Field{logger.F("id", h.ID)})
		return false
	}

	m.metrics.PreviewReleased()
	m.logger.DebugWithFields("preview released", []logger.Field{logger.F("id", h.ID)})
	return true
}

// Live returns the number of registered handles
func (m *Manager) Live() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Released returns how many handles have been released over the manager's life
func (m *Manager) Released() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.released
}

// Close releases every handle and stops the server
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	for id := range m.entries {
		delete(m.entries, id)
		m.released++
		m.metrics.PreviewReleased()
	}
	m.closed = true
	srv := m.server
	m.server = nil
	m.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown preview server: %w", err)
	}
	return nil
}

func (m *Manager) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m.mu.RLock()
	file, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	src, err := file.Open()
	if err != nil {
		m.logger.Warn("preview %s unreadable: %v", id, err)
		http.Error(w, "preview unavailable", http.StatusGone)
		return
	}
	defer func() { _ = src.Close() }()

	if file.MIMEType != "" {
		w.Header().Set("Content-Type", file.MIMEType)
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, file.Name, time.Time{}, src)
}

// previewURL prefers the loopback server and falls back to the file itself
func previewURL(base, id string, file common.SelectedFile) string {
	if base != "" {
		return base + "/preview/" + id
	}
	if file.Path != "" {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(file.Path)}).String()
	}
	return "memory:" + id
}

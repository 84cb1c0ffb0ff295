package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/navikt/roomstatus/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultTitle is used when no board title is configured
const DefaultTitle = "YYZ Conference Rooms"

// Handler manages web UI requests
type Handler struct {
	roomService RoomServicer
	templates   *template.Template
	sseManager  *SSEManager
	title       string
	logger      *zap.Logger
	now         func() time.Time
}

// boardView is the data every page template receives
type boardView struct {
	Title       string
	Rooms       []models.RoomStatus
	FreeCount   int
	BusyCount   int
	List        bool
	LastUpdated string
}

// NewHandler creates a new web UI handler
func NewHandler(roomService RoomServicer, title string, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if title == "" {
		title = DefaultTitle
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"formatTime": formatTime,
		"classes":    cssClasses,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Handler{
		roomService: roomService,
		templates:   tmpl,
		sseManager:  NewSSEManager(logger),
		title:       title,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// formatTime is a template helper function to format time
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("15:04:05")
}

func cssClasses(status models.RoomStatus) string {
	return strings.Join(status.CSSClasses(), " ")
}

// SetupRoutes registers web UI routes on the given mux
func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.Handle("/events", h.sseManager)
	mux.HandleFunc("/", h.handleIndex)
	mux.HandleFunc("/list", h.handleList)
	mux.HandleFunc("/partial/rooms", h.HandlePartialRooms)
}

// handleIndex renders the room board
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	// Only handle the root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.renderPage(w, r, false)
}

// handleList renders the rooms as a table
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, true)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, list bool) {
	view, err := h.view(r, list)
	if err != nil {
		h.logger.Error("getting room status", zap.Error(err))
		http.Error(w, "Failed to get room status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "layout.html", view); err != nil {
		h.logger.Error("rendering template", zap.String("template", "layout.html"), zap.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandlePartialRooms renders just the room board, or the table with ?view=list, for HTMX updates
func (h *Handler) HandlePartialRooms(w http.ResponseWriter, r *http.Request) {
	list := r.URL.Query().Get("view") == "list"
	view, err := h.view(r, list)
	if err != nil {
		h.logger.Error("getting room status", zap.Error(err))
		http.Error(w, "Failed to get room status", http.StatusInternalServerError)
		return
	}

	name := "room_board"
	if list {
		name = "room_list"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, view); err != nil {
		h.logger.Error("rendering template", zap.String("template", name), zap.Error(err))
		http.Error(w, "Failed to render room list", http.StatusInternalServerError)
	}
}

func (h *Handler) view(r *http.Request, list bool) (boardView, error) {
	statuses, err := h.roomService.GetStatuses(r.Context())
	if err != nil {
		return boardView{}, err
	}

	view := boardView{
		Title:       h.title,
		Rooms:       statuses,
		List:        list,
		LastUpdated: formatTime(h.now()),
	}
	for _, s := range statuses {
		if s.IsFree {
			view.FreeCount++
		} else {
			view.BusyCount++
		}
	}
	return view, nil
}

// NotifyRoomUpdate sends an update notification to all SSE clients.
// Register it as a room service update callback.
func (h *Handler) NotifyRoomUpdate(room *models.Room) {
	h.sseManager.NotifyRoomUpdate(room)
}

// Shutdown gracefully shuts down the web handler and its SSE manager
func (h *Handler) Shutdown() {
	h.sseManager.Shutdown()
}

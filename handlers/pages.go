package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chatterbox/chatterbox-backend/middleware"
	"github.com/chatterbox/chatterbox-backend/models"
	"github.com/chatterbox/chatterbox-backend/repository"
	"github.com/chatterbox/chatterbox-backend/responses"
	"github.com/chatterbox/chatterbox-backend/session"
	"github.com/chatterbox/chatterbox-backend/utils"
	"github.com/chatterbox/chatterbox-backend/web"
)

// PageData carries everything the templates can render.
type PageData struct {
	Error       string
	Username    string
	OnlineUsers []string
	Messages    []models.Message
	Profile     *models.User
	Users       []models.User
}

// PageRenderer executes the embedded HTML templates.
type PageRenderer struct {
	templates *template.Template
}

func NewPageRenderer() (*PageRenderer, error) {
	templates, err := template.ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &PageRenderer{templates: templates}, nil
}

func (p *PageRenderer) Render(w http.ResponseWriter, name string, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := p.templates.ExecuteTemplate(w, name+".html", data); err != nil {
		log.Printf("Failed to render %s: %v", name, err)
	}
}

// PageHandler serves the HTML pages around the chat.
type PageHandler struct {
	renderer     *PageRenderer
	users        UserStore
	messages     MessageStore
	hub          *Hub
	sessions     *session.Manager
	historyLimit int64
}

func NewPageHandler(renderer *PageRenderer, users UserStore, messages MessageStore, hub *Hub, sessions *session.Manager, historyLimit int64) *PageHandler {
	return &PageHandler{
		renderer:     renderer,
		users:        users,
		messages:     messages,
		hub:          hub,
		sessions:     sessions,
		historyLimit: historyLimit,
	}
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.FromRequest(r); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderer.Render(w, "landing", PageData{})
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims := middleware.SessionFrom(r.Context())

	messages, err := h.messages.Recent(r.Context(), h.historyLimit)
	if err != nil {
		log.Println("Failed to load message history:", err)
	}

	h.renderer.Render(w, "dashboard", PageData{
		Username:    claims.Username,
		OnlineUsers: h.hub.OnlineUsernames(),
		Messages:    messages,
	})
}

func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	user, err := h.users.FindByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.HandleError(w, responses.NotFoundError{Msg: "User not found"})
			return
		}
		log.Println("Profile lookup failed:", err)
		utils.HandleError(w, responses.InternalServerError{Msg: "An error occurred while processing your request."})
		return
	}

	h.renderer.Render(w, "profile", PageData{Profile: user})
}

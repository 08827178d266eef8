package handlers

import (
	"io/fs"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chatterbox/chatterbox-backend/middleware"
	"github.com/chatterbox/chatterbox-backend/session"
	"github.com/chatterbox/chatterbox-backend/web"
)

// NewRouter wires every route of the application.
func NewRouter(pages *PageHandler, auth *AuthHandler, admin *AdminHandler, chat *ChatHandler, sessions *session.Manager) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", pages.Index).Methods("GET")
	r.HandleFunc("/login", auth.ShowLogin).Methods("GET")
	r.HandleFunc("/login", auth.Login).Methods("POST")
	r.HandleFunc("/signup", auth.ShowSignup).Methods("GET")
	r.HandleFunc("/signup", auth.Signup).Methods("POST")
	r.HandleFunc("/logout", auth.Logout).Methods("GET", "POST")

	requireSession := middleware.RequireSession(sessions)
	r.Handle("/dashboard", requireSession(http.HandlerFunc(pages.Dashboard))).Methods("GET")
	r.Handle("/profile/{username}", requireSession(http.HandlerFunc(pages.Profile))).Methods("GET")

	requireAdmin := middleware.RequireAdmin(sessions)
	r.Handle("/admin", requireAdmin(http.HandlerFunc(admin.Panel))).Methods("GET")
	r.Handle("/admin/ban/{username}", requireAdmin(http.HandlerFunc(admin.Ban))).Methods("POST")

	r.HandleFunc("/ws", chat.ServeWS)

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		log.Fatal("Failed to mount static assets:", err)
	}
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	return r
}

package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chatterbox/chatterbox-backend/repository"
	"github.com/chatterbox/chatterbox-backend/responses"
	"github.com/chatterbox/chatterbox-backend/utils"
)

// AdminHandler serves the admin panel and the ban action.
type AdminHandler struct {
	users    UserStore
	renderer *PageRenderer
}

func NewAdminHandler(users UserStore, renderer *PageRenderer) *AdminHandler {
	return &AdminHandler{users: users, renderer: renderer}
}

func (h *AdminHandler) Panel(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.All(r.Context())
	if err != nil {
		log.Println("Failed to list users:", err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to list users."})
		return
	}

	h.renderer.Render(w, "admin", PageData{Users: users})
}

// Ban deletes the user's account. Live connections are not torn down; the
// user simply cannot log in again.
func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	if err := h.users.Delete(r.Context(), username); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Println("Failed to delete user:", err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to delete user."})
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/chatterbox/chatterbox-backend/models"
	"github.com/chatterbox/chatterbox-backend/repository"
	"github.com/chatterbox/chatterbox-backend/responses"
	"github.com/chatterbox/chatterbox-backend/session"
	"github.com/chatterbox/chatterbox-backend/utils"
)

// UserStore is the account gateway consumed by the HTTP handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	All(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, username string) error
}

type signupForm struct {
	Username string `validate:"required,min=3,max=50"`
	Password string `validate:"required,min=3,max=72"`
}

// signupValidationMessage maps a validation failure to the message rendered
// back into the signup form.
func signupValidationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		if fieldErrors[0].Field() == "Username" {
			return "Username must be between 3 and 50 characters."
		}
		return "Password must be between 3 and 72 characters."
	}
	return "Invalid request."
}

// AuthHandler serves the login and signup pages and processes their forms.
type AuthHandler struct {
	users    UserStore
	sessions *session.Manager
	renderer *PageRenderer
	validate *validator.Validate
}

func NewAuthHandler(users UserStore, sessions *session.Manager, renderer *PageRenderer) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		renderer: renderer,
		validate: validator.New(),
	}
}

func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, "login", PageData{})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, responses.BadRequestError{Msg: "Invalid request."})
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.users.FindByUsername(r.Context(), username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Println("Login lookup failed:", err)
		}
		h.renderer.Render(w, "login", PageData{Error: "Invalid username or password."})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		h.renderer.Render(w, "login", PageData{Error: "Invalid username or password."})
		return
	}

	if err := h.sessions.Issue(w, user.Username, user.Role); err != nil {
		log.Println("Failed to issue session:", err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to issue session."})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, "signup", PageData{})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.HandleError(w, responses.BadRequestError{Msg: "Invalid request."})
		return
	}

	form := signupForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validate.Struct(form); err != nil {
		h.renderer.Render(w, "signup", PageData{Error: signupValidationMessage(err)})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Println("Failed to hash password:", err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to hash password."})
		return
	}

	user := models.User{
		Username: form.Username,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
		JoinDate: time.Now().UTC(),
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			h.renderer.Render(w, "signup", PageData{Error: "Username is already taken."})
			return
		}
		log.Println("Failed to create user:", err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to create user."})
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

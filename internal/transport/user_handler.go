package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler serves registration, sign in/out and profile endpoints.
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new instance of UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/signin", h.SignIn)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth())

		r.Post("/signout", h.SignOut)
		r.Get("/profile/{login}", h.GetProfile)
		r.Patch("/profile", h.UpdateProfile)
		r.Delete("/profile", h.DeleteAccount)
	})
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, user)
}

// SignIn authenticates via HTTP Basic credentials and returns the session
// token. The token is also set as a cookie for browser clients.
func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	login, password, ok := r.BasicAuth()
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing basic auth credentials")
		return
	}

	token, err := h.userService.SignIn(r.Context(), login, password)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *UserHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.GetSessionToken(r.Context())

	if err := h.userService.SignOut(r.Context(), token); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	middleware.RespondWithJSON(w, http.StatusOK, nil)
}

// GetProfile returns the profile behind a login. Only a user's own profile
// is visible; admins can look up anyone.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	login := chi.URLParam(r, "login")

	callerLogin, _ := middleware.GetUserLogin(r.Context())
	callerRole, _ := middleware.GetUserRole(r.Context())
	if login != callerLogin && callerRole != domain.RoleAdmin {
		middleware.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	user, err := h.userService.GetProfile(r.Context(), login)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req service.UpdateProfileInput
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	if err := h.userService.DeleteAccount(r.Context(), userID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, nil)
}

package httpx

import (
	"context"
	"log/slog"
	"net/http"

	domainauth "github.com/danxi/authgate/internal/domain/auth"
	"github.com/danxi/authgate/internal/service"
)

// AuthServiceInterface defines the auth operations the HTTP layer needs.
type AuthServiceInterface interface {
	Login(ctx context.Context, strategy service.Strategy, creds domainauth.Credentials) (*service.LoginResult, error)
	CurrentUser(ctx context.Context) (*domainauth.UserRecord, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc    AuthServiceInterface
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserView is the public projection of a UserRecord; the secret is never returned.
type UserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"userGroup"`
}

func newUserView(rec domainauth.UserRecord) UserView {
	return UserView{ID: rec.ID, Name: rec.DisplayName, Group: string(rec.Group)}
}

type loginResponse struct {
	AttemptID string   `json:"attempt_id"`
	Strategy  string   `json:"strategy"`
	User      UserView `json:"user"`
}

// LoginAPI handles POST /api/auth/login against the first-party JSON API.
func (h *AuthHandlers) LoginAPI(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, service.StrategyAPI)
}

// LoginUIS handles POST /api/auth/uis/login against the institutional portal.
func (h *AuthHandlers) LoginUIS(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, service.StrategyUIS)
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request, strategy service.Strategy) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.Login(r.Context(), strategy, domainauth.Credentials{
		Identifier: req.Username,
		Secret:     req.Password,
	})
	if err != nil {
		WriteAppError(w, r, h.logger(), err)
		return
	}

	WriteJSON(w, http.StatusOK, loginResponse{
		AttemptID: res.AttemptID,
		Strategy:  string(res.Strategy),
		User:      newUserView(res.User),
	})
}

// Me handles GET /api/auth/me and returns the persisted user.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Svc.CurrentUser(r.Context())
	if err != nil {
		WriteAppError(w, r, h.logger(), err)
		return
	}
	if rec == nil {
		WriteJSON(w, http.StatusNotFound, ErrorBody{Error: "not_logged_in", Message: "no user has logged in"})
		return
	}
	WriteJSON(w, http.StatusOK, newUserView(*rec))
}

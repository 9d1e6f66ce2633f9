package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	userdomain "userdir/backend/internal/domain/user"
	userusecase "userdir/backend/internal/usecase/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

var (
	managers  = []string{userdomain.RoleAdmin, userdomain.RoleSuperAdmin}
	operators = []string{userdomain.RoleAdmin, userdomain.RoleSuperAdmin, userdomain.RoleSupport}
)

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.withLogging,
		s.metrics.Middleware,
		middleware.Recoverer,
		withCORS(s.cfg.AllowedOrigins),
		s.withSecureHeaders,
	)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	if s.cfg.LoginRateLimit > 0 {
		r.With(httprate.LimitByIP(s.cfg.LoginRateLimit, time.Minute)).Get("/auth/login", s.handleLogin)
	} else {
		r.Get("/auth/login", s.handleLogin)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/roles", s.handleListRoles)
		r.Get("/roles/{id}", s.handleGetRole)
		r.Route("/users", func(r chi.Router) {
			r.Get("/getUser", s.handleGetUser)
			r.Get("/getUsers", s.handleGetUsers)

			r.With(s.requireRoles(managers...)).Post("/create", s.handleCreateUser)
			r.With(s.requireRoles(managers...)).Put("/editUser", s.handleEditUser)
			r.With(s.requireRoles(userdomain.RoleSuperAdmin)).Delete("/deleteUser", s.handleDeleteUser)

			r.With(s.requireRoles(operators...)).Post("/addRole", s.handleAddRole)
			r.With(s.requireRoles(operators...)).Delete("/deleteRole", s.handleDeleteRole)
			r.With(s.requireRoles(operators...)).Post("/filterSortUsers", s.handleFilterSortUsers)
			r.With(s.requireRoles(operators...)).Post("/filterSort", s.handleFilterSortUsers)
			r.With(s.requireRoles(operators...)).Post("/filterSortRoles", s.handleFilterSortRoles)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	token, err := s.authService.IssueToken(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) {
			s.metrics.TokenIssued("not_found")
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.metrics.TokenIssued("error")
		s.writeServiceError(w, r, err, "can't issue token")
		return
	}
	s.metrics.TokenIssued("issued")
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.roleService.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "can't list roles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": roles})
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	role, err := s.roleService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err, "can't load role")
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload userusecase.CreateInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	s.logger.Info("create user requested",
		slog.String("name", payload.Name),
		slog.String("email", payload.Email),
		slog.Int("age", payload.Age),
	)

	user, err := s.userService.Create(r.Context(), payload)
	if err != nil {
		s.writeServiceError(w, r, err, "can't create user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleAddRole(w http.ResponseWriter, r *http.Request) {
	var payload userusecase.RoleGrantInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := s.userService.AddRole(r.Context(), payload); err != nil {
		s.writeServiceError(w, r, err, fmt.Sprintf("can't add role %s to user %s", payload.RoleID, payload.UserID))
		return
	}
	writeMessage(w, "Role added to user successfully")
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	var payload userusecase.RoleGrantInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := s.userService.RemoveRole(r.Context(), payload); err != nil {
		s.writeServiceError(w, r, err, fmt.Sprintf("can't remove role %s from user %s", payload.RoleID, payload.UserID))
		return
	}
	writeMessage(w, "Role removed from user successfully")
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.userService.Get(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "can't load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageNumber, err := queryInt(q.Get("pageNumber"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "pageNumber must be an integer")
		return
	}
	pageSize, err := queryInt(q.Get("pageSize"), 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, "pageSize must be an integer")
		return
	}

	result, err := s.userService.List(r.Context(), pageNumber, pageSize)
	if err != nil {
		s.writeServiceError(w, r, err, "can't list users")
		return
	}
	if len(result.Items) == 0 {
		writeError(w, http.StatusNotFound, "Users not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFilterSortUsers(w http.ResponseWriter, r *http.Request) {
	var payload userusecase.FilterSortInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	result, err := s.userService.FilterSort(r.Context(), payload)
	if err != nil {
		s.writeServiceError(w, r, err, "error filtering/sorting users")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFilterSortRoles(w http.ResponseWriter, r *http.Request) {
	var payload userusecase.FilterSortRolesInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	result, err := s.userService.FilterSortRoles(r.Context(), payload)
	if err != nil {
		s.writeServiceError(w, r, err, "error filtering/sorting users by role")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEditUser(w http.ResponseWriter, r *http.Request) {
	var payload userusecase.EditInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, err := s.userService.Edit(r.Context(), payload)
	if err != nil {
		s.writeServiceError(w, r, err, fmt.Sprintf("user with id %s hasn't been updated", payload.ID))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if err := s.userService.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, fmt.Sprintf("user %s hasn't been deleted", id))
		return
	}
	writeMessage(w, fmt.Sprintf("User(%s) has been deleted.", id))
}

// writeServiceError maps domain errors onto status codes. Anything
// unrecognised is logged and answered with the generic failure message.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, failure string) {
	switch {
	case errors.Is(err, userdomain.ErrEmailNotUnique):
		writeError(w, http.StatusBadRequest, "Email isn't unique")
	case errors.Is(err, userdomain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, userdomain.ErrUserNotFound), errors.Is(err, userdomain.ErrRoleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error(failure,
			slog.Any("error", err),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, failure)
	}
}

func queryInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

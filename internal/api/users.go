package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/store"
	"movie-catalog/pkg/auth"

	"github.com/google/uuid"
)

// RegisterUser создает пользователя с ролью user
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP RegisterUser request received", slog.String("path", r.URL.Path))

	var req domain.RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to hash password", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Error processing registration")
		return
	}

	now := time.Now().UTC()
	newUser := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hashedPassword,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "Registration with taken email or username", slog.String("email", newUser.Email))
			h.respondError(w, r, http.StatusConflict, "User with this email or username already exists")
		} else {
			h.logger.ErrorContext(ctx, "Failed to create user in store", slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to register user")
		}
		return
	}

	h.logger.InfoContext(ctx, "User registered successfully", slog.String("userID", newUser.ID), slog.String("username", newUser.Username))
	h.respondJSON(w, r, http.StatusCreated, newUser.Profile())
}

// LoginUser проверяет пароль и выдает JWT
func (h *Handler) LoginUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP LoginUser request received", slog.String("path", r.URL.Path))

	var req domain.LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "Login attempt for non-existent email", slog.String("email", req.Email))
			h.respondError(w, r, http.StatusUnauthorized, "Invalid email or password")
		} else {
			h.logger.ErrorContext(ctx, "Failed to get user by email from store", slog.String("email", req.Email), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		h.logger.WarnContext(ctx, "Invalid password attempt", slog.String("email", req.Email), slog.String("userID", user.ID))
		h.respondError(w, r, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	tokenString, err := h.tokenManager.Generate(user.ID, user.Role)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to generate JWT token", slog.String("userID", user.ID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Login failed (token generation)")
		return
	}

	h.logger.InfoContext(ctx, "User logged in successfully", slog.String("userID", user.ID))
	h.respondJSON(w, r, http.StatusOK, domain.LoginResponse{User: user.Profile(), Token: tokenString})
}

// GetUserProfile возвращает профиль текущего пользователя
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "User from valid token not found in store", slog.String("userID", userID))
			h.respondError(w, r, http.StatusNotFound, "User associated with token not found")
		} else {
			h.logger.ErrorContext(ctx, "Failed to get user by ID from store for profile", slog.String("userID", userID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve user profile")
		}
		return
	}
	h.respondJSON(w, r, http.StatusOK, user.Profile())
}

// UpdateUserProfile меняет username и email текущего пользователя
func (h *Handler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateProfileRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondError(w, r, http.StatusNotFound, "User not found")
		} else {
			h.logger.ErrorContext(ctx, "Failed to load user for profile update", slog.String("userID", userID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to update profile")
		}
		return
	}

	updated := false
	if req.Username != nil && *req.Username != user.Username {
		user.Username = *req.Username
		updated = true
	}
	if req.Email != nil {
		email := strings.ToLower(*req.Email)
		if email != user.Email {
			owner, err := h.users.GetByEmail(ctx, email)
			switch {
			case err == nil && owner.ID != userID:
				h.respondError(w, r, http.StatusConflict, "Email already in use by another account")
				return
			case err != nil && !errors.Is(err, store.ErrUserNotFound):
				h.logger.ErrorContext(ctx, "Error checking new email uniqueness", slog.String("email", email), slog.String("error", err.Error()))
				h.respondError(w, r, http.StatusInternalServerError, "Failed to update profile")
				return
			}
			user.Email = email
			updated = true
		}
	}

	if updated {
		user.UpdatedAt = time.Now().UTC()
		if err := h.users.Update(ctx, user); err != nil {
			if errors.Is(err, store.ErrUserAlreadyExists) {
				h.respondError(w, r, http.StatusConflict, "Username or email already in use")
			} else {
				h.logger.ErrorContext(ctx, "Failed to update user profile in store", slog.String("userID", userID), slog.String("error", err.Error()))
				h.respondError(w, r, http.StatusInternalServerError, "Failed to update profile")
			}
			return
		}
		h.logger.InfoContext(ctx, "User profile updated", slog.String("userID", userID))
	}
	h.respondJSON(w, r, http.StatusOK, user.Profile())
}

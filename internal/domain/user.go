package domain

import (
	"time"

	"github.com/lib/pq"
)

// Роли пользователей
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет модель пользователя вместе с его реакциями и историей просмотров
type User struct {
	ID              string         `json:"id" db:"id"` // UUID
	Username        string         `json:"username" db:"username"`
	Email           string         `json:"email" db:"email"`
	PasswordHash    string         `json:"-" db:"password_hash"` // Не отдаем хеш пароля в JSON
	Role            string         `json:"role" db:"role"`
	RecentlyVisited VisitHistory   `json:"recentlyVisited" db:"recently_visited"`
	LikedMovies     pq.StringArray `json:"likedMovies" db:"liked_movies"`
	DislikedMovies  pq.StringArray `json:"dislikedMovies" db:"disliked_movies"`
	CreatedAt       time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time      `json:"updatedAt" db:"updated_at"`
}

// Profile - публичное представление пользователя без истории и реакций
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// IsAdmin сообщает, есть ли у пользователя роль администратора
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RegisterRequest для регистрации нового пользователя (HTTP)
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// LoginRequest для входа пользователя (HTTP)
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse для ответа при успешном входе (HTTP)
type LoginResponse struct {
	User  Profile `json:"user"`
	Token string  `json:"token"`
}

// UpdateProfileRequest для обновления профиля (HTTP)
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

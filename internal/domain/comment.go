// internal/domain/comment.go
package domain

import (
	"strings"
	"time"
)

// MaxCommentLength - максимальная длина комментария в символах
const MaxCommentLength = 500

// Comment представляет комментарий пользователя к фильму
type Comment struct {
	ID        string     `json:"id" db:"id"`               // UUID
	MovieID   string     `json:"movieId" db:"movie_id"`    // Ссылка на фильм
	UserID    string     `json:"userId" db:"user_id"`      // Ссылка на автора
	Username  string     `json:"username" db:"username"`   // Имя автора на момент написания
	Content   string     `json:"content" db:"content"`
	IsEdited  bool       `json:"isEdited" db:"is_edited"`
	EditedAt  *time.Time `json:"editedAt,omitempty" db:"edited_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// Edit заменяет текст комментария и помечает его как отредактированный
func (c *Comment) Edit(content string, at time.Time) {
	c.Content = content
	c.IsEdited = true
	c.EditedAt = &at
	c.UpdatedAt = at
}

// CreateCommentRequest определяет тело запроса для нового комментария
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// Normalize убирает пробелы по краям текста, длина проверяется уже после этого
func (r *CreateCommentRequest) Normalize() {
	r.Content = strings.TrimSpace(r.Content)
}

// UpdateCommentRequest определяет тело запроса для редактирования комментария
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

func (r *UpdateCommentRequest) Normalize() {
	r.Content = strings.TrimSpace(r.Content)
}

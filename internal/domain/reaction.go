package domain

import (
	"errors"
	"slices"
	"strings"
)

// ReactionAction - каноническое действие над реакцией пользователя к фильму
type ReactionAction string

const (
	ActionLike    ReactionAction = "like"
	ActionDislike ReactionAction = "dislike"
	ActionRemove  ReactionAction = "remove"
)

var ErrUnknownAction = errors.New("action must be one of like, dislike, remove")

// ParseReactionAction разбирает строку действия. Пустая строка и любые другие значения - ошибка.
func ParseReactionAction(s string) (ReactionAction, error) {
	switch a := ReactionAction(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionLike, ActionDislike, ActionRemove:
		return a, nil
	default:
		return "", ErrUnknownAction
	}
}

// CounterAdjustment описывает изменение счетчиков фильма после реакции.
// Значения Removed применяются с ограничением снизу нулем, затем прибавляются Added.
type CounterAdjustment struct {
	LikesRemoved    int
	LikesAdded      int
	DislikesRemoved int
	DislikesAdded   int
}

// IsZero - true, если счетчики не меняются
func (a CounterAdjustment) IsZero() bool {
	return a == CounterAdjustment{}
}

// ApplyTo применяет изменение к паре счетчиков
func (a CounterAdjustment) ApplyTo(likes, dislikes int) (int, int) {
	return max(likes-a.LikesRemoved, 0) + a.LikesAdded, max(dislikes-a.DislikesRemoved, 0) + a.DislikesAdded
}

// ReactionResult - ответ на изменение реакции
type ReactionResult struct {
	Likes        int             `json:"likes"`
	Dislikes     int             `json:"dislikes"`
	UserReaction *ReactionAction `json:"userReaction"`
}

// ApplyReaction обновляет множества likedMovies/dislikedMovies пользователя и возвращает
// изменение счетчиков фильма. Идентификатор всегда сначала удаляется из обоих множеств,
// поэтому повтор того же действия снимает и снова ставит реакцию.
func (u *User) ApplyReaction(movieID string, action ReactionAction) CounterAdjustment {
	var adj CounterAdjustment
	if slices.Contains(u.LikedMovies, movieID) {
		adj.LikesRemoved = 1
	}
	if slices.Contains(u.DislikedMovies, movieID) {
		adj.DislikesRemoved = 1
	}
	u.LikedMovies = removeID(u.LikedMovies, movieID)
	u.DislikedMovies = removeID(u.DislikedMovies, movieID)

	switch action {
	case ActionLike:
		u.LikedMovies = append(u.LikedMovies, movieID)
		adj.LikesAdded = 1
	case ActionDislike:
		u.DislikedMovies = append(u.DislikedMovies, movieID)
		adj.DislikesAdded = 1
	}
	return adj
}

// ReactionTo возвращает текущую реакцию пользователя на фильм, nil если ее нет
func (u *User) ReactionTo(movieID string) *ReactionAction {
	var a ReactionAction
	switch {
	case slices.Contains(u.LikedMovies, movieID):
		a = ActionLike
	case slices.Contains(u.DislikedMovies, movieID):
		a = ActionDislike
	default:
		return nil
	}
	return &a
}

// ResultReaction переводит действие в значение userReaction ответа (nil для remove)
func ResultReaction(action ReactionAction) *ReactionAction {
	if action == ActionRemove {
		return nil
	}
	a := action
	return &a
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

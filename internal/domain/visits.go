package domain

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// DefaultRecentlyVisitedCapacity - сколько последних просмотров хранится у пользователя
const DefaultRecentlyVisitedCapacity = 15

// Visit - одна запись истории просмотров
type Visit struct {
	MovieID   string    `json:"movieId"`
	VisitedAt time.Time `json:"visitedAt"`
}

// VisitHistory - история просмотров, самые свежие первыми, без повторов movieId.
// В PostgreSQL хранится как JSONB.
type VisitHistory []Visit

// Record добавляет посещение фильма в начало истории.
// Существующая запись о фильме удаляется до вставки, затем история обрезается до capacity.
func (h VisitHistory) Record(movieID string, at time.Time, capacity int) VisitHistory {
	if capacity <= 0 {
		capacity = DefaultRecentlyVisitedCapacity
	}
	out := make(VisitHistory, 0, min(len(h)+1, capacity))
	out = append(out, Visit{MovieID: movieID, VisitedAt: at})
	for _, v := range h {
		if len(out) == capacity {
			break
		}
		if v.MovieID == movieID {
			continue
		}
		out = append(out, v)
	}
	return out
}

// MovieIDs возвращает идентификаторы фильмов в порядке истории
func (h VisitHistory) MovieIDs() []string {
	ids := make([]string, len(h))
	for i, v := range h {
		ids[i] = v.MovieID
	}
	return ids
}

// Value реализует driver.Valuer
func (h VisitHistory) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal visit history: %w", err)
	}
	return b, nil
}

// Scan реализует sql.Scanner
func (h *VisitHistory) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*h = VisitHistory{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for visit history", src)
	}
	var out VisitHistory
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to unmarshal visit history: %w", err)
	}
	if out == nil {
		out = VisitHistory{}
	}
	*h = out
	return nil
}

// VisitedMovie - запись истории с подгруженным фильмом
type VisitedMovie struct {
	Movie     MovieSummary `json:"movie"`
	VisitedAt time.Time    `json:"visitedAt"`
}

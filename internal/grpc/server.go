package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"movie-catalog/internal/catalog"
	"movie-catalog/internal/domain"
	"movie-catalog/internal/store"

	"github.com/goccy/go-json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// MovieInfo - краткие сведения о фильме для других сервисов
type MovieInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ReleaseYear int      `json:"releaseYear"`
	Categories  []string `json:"categories"`
	Artists     []string `json:"artists"`
	ViewCount   int      `json:"viewCount"`
	Likes       int      `json:"likes"`
	Dislikes    int      `json:"dislikes"`
}

type moviesPayload struct {
	Movies []domain.MovieSummary `json:"movies"`
}

// Server реализует CatalogServer поверх сервиса каталога
type Server struct {
	movies       store.MovieStore
	catalog      *catalog.Service
	logger       *slog.Logger
	defaultLimit int
}

// DefaultLimit - limit для Recommend и Trending, если поле не передано
const DefaultLimit = 10

// NewServer создает новый экземпляр gRPC сервера каталога.
// defaultLimit <= 0 заменяется на DefaultLimit.
func NewServer(movies store.MovieStore, svc *catalog.Service, defaultLimit int, logger *slog.Logger) *Server {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Server{movies: movies, catalog: svc, logger: logger, defaultLimit: defaultLimit}
}

func movieInfo(m *domain.Movie) MovieInfo {
	return MovieInfo{
		ID:          m.ID,
		Title:       m.Title,
		ReleaseYear: m.ReleaseYear,
		Categories:  []string(m.Categories),
		Artists:     []string(m.Artists),
		ViewCount:   m.ViewCount,
		Likes:       m.Likes,
		Dislikes:    m.Dislikes,
	}
}

// GetMovieInfo реализует gRPC метод GetMovieInfo.
func (s *Server) GetMovieInfo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	movieID, err := requiredString(req, "movieId")
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "gRPC GetMovieInfo called", slog.String("movie_id", movieID))

	movie, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			s.logger.WarnContext(ctx, "Movie not found by ID for GetMovieInfo", slog.String("movie_id", movieID))
			return nil, status.Errorf(codes.NotFound, "movie not found with ID %s", movieID)
		}
		s.logger.ErrorContext(ctx, "Failed to get movie by ID from store for GetMovieInfo", slog.String("movie_id", movieID), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Unavailable, "failed to retrieve movie details: %v", err)
	}
	return toStruct(movieInfo(movie))
}

// CheckMovieExists реализует gRPC метод CheckMovieExists. Неактивный фильм считается отсутствующим.
func (s *Server) CheckMovieExists(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	movieID, err := requiredString(req, "movieId")
	if err != nil {
		return nil, err
	}

	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			s.logger.InfoContext(ctx, "Movie does not exist (checked via gRPC)", slog.String("movie_id", movieID))
			return wrapperspb.Bool(false), nil
		}
		s.logger.ErrorContext(ctx, "Failed to check movie existence from store", slog.String("movie_id", movieID), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Unavailable, "failed to check movie existence: %v", err)
	}
	return wrapperspb.Bool(true), nil
}

// ApplyReaction реализует gRPC метод ApplyReaction.
func (s *Server) ApplyReaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requiredString(req, "userId")
	if err != nil {
		return nil, err
	}
	movieID, err := requiredString(req, "movieId")
	if err != nil {
		return nil, err
	}
	result, err := s.catalog.ApplyReaction(ctx, userID, movieID, stringField(req, "action"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(result)
}

// Recommend реализует gRPC метод Recommend.
func (s *Server) Recommend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requiredString(req, "userId")
	if err != nil {
		return nil, err
	}
	limit, err := intField(req, "limit", s.defaultLimit)
	if err != nil {
		return nil, err
	}
	movies, err := s.catalog.Recommend(ctx, userID, limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(moviesPayload{Movies: movies})
}

// Trending реализует gRPC метод Trending.
func (s *Server) Trending(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := intField(req, "limit", s.defaultLimit)
	if err != nil {
		return nil, err
	}
	movies, err := s.catalog.Trending(ctx, limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(moviesPayload{Movies: movies})
}

// toStatus переводит ошибку сервиса каталога в gRPC статус
func toStatus(err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, catalog.ErrInvalidAction), errors.Is(err, catalog.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, catalog.ErrPersistence):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func requiredString(req *structpb.Struct, name string) (string, error) {
	v := stringField(req, name)
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s cannot be empty", name)
	}
	return v, nil
}

// intField читает целое поле; отсутствующее или null поле дает def.
// Явные 0 и отрицательные значения возвращаются как есть и отклоняются сервисом.
func intField(req *structpb.Struct, name string, def int) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return def, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return def, nil
	}
	if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
	f := v.GetNumberValue()
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	return int(f), nil
}

// toStruct кодирует значение в JSON и собирает из него google.protobuf.Struct
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build response struct: %v", err)
	}
	return out, nil
}

// fromStruct раскладывает google.protobuf.Struct в типизированное значение
func fromStruct(s *structpb.Struct, dst any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode struct: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to decode struct: %w", err)
	}
	return nil
}

// UnaryLoggingInterceptor пишет в лог метод, код ответа и длительность каждого вызова
func UnaryLoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		level := slog.LevelInfo
		if code != codes.OK && code != codes.NotFound && code != codes.InvalidArgument {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "gRPC call finished",
			slog.String("method", info.FullMethod),
			slog.String("code", code.String()),
			slog.Duration("duration", time.Since(start)))
		return resp, err
	}
}

package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"movie-catalog/internal/domain"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// DefaultCallTimeout - таймаут одного вызова, если не задан другой
const DefaultCallTimeout = 3 * time.Second

// CatalogClient - типизированный клиент CatalogService
type CatalogClient struct {
	conn        *grpc.ClientConn
	logger      *slog.Logger
	callTimeout time.Duration
}

// NewCatalogClient создает клиент для target (например, "localhost:9092").
// Соединение устанавливается лениво при первом вызове.
func NewCatalogClient(target string, callTimeout time.Duration, logger *slog.Logger, opts ...grpc.DialOption) (*CatalogClient, error) {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client for %s: %w", target, err)
	}
	return &CatalogClient{conn: conn, logger: logger, callTimeout: callTimeout}, nil
}

func (c *CatalogClient) invoke(ctx context.Context, method string, in map[string]any, out proto.Message) error {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	if err := c.conn.Invoke(callCtx, fullMethod(method), req, out); err != nil {
		st, _ := status.FromError(err)
		c.logger.ErrorContext(ctx, "CatalogService gRPC call failed",
			slog.String("method", method),
			slog.String("code", st.Code().String()),
			slog.String("message", st.Message()))
		return fmt.Errorf("grpc %s failed: %w", method, err)
	}
	return nil
}

func (c *CatalogClient) GetMovieInfo(ctx context.Context, movieID string) (*MovieInfo, error) {
	resp := &structpb.Struct{}
	if err := c.invoke(ctx, MethodGetMovieInfo, map[string]any{"movieId": movieID}, resp); err != nil {
		return nil, err
	}
	var info MovieInfo
	if err := fromStruct(resp, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *CatalogClient) CheckMovieExists(ctx context.Context, movieID string) (bool, error) {
	resp := &wrapperspb.BoolValue{}
	if err := c.invoke(ctx, MethodCheckMovieExists, map[string]any{"movieId": movieID}, resp); err != nil {
		return false, err
	}
	return resp.GetValue(), nil
}

// ApplyReaction применяет реакцию пользователя и возвращает новые счетчики фильма
func (c *CatalogClient) ApplyReaction(ctx context.Context, userID, movieID, action string) (*domain.ReactionResult, error) {
	resp := &structpb.Struct{}
	in := map[string]any{"userId": userID, "movieId": movieID, "action": action}
	if err := c.invoke(ctx, MethodApplyReaction, in, resp); err != nil {
		return nil, err
	}
	var result domain.ReactionResult
	if err := fromStruct(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *CatalogClient) Recommend(ctx context.Context, userID string, limit int) ([]domain.MovieSummary, error) {
	return c.movies(ctx, MethodRecommend, map[string]any{"userId": userID, "limit": limit})
}

func (c *CatalogClient) Trending(ctx context.Context, limit int) ([]domain.MovieSummary, error) {
	return c.movies(ctx, MethodTrending, map[string]any{"limit": limit})
}

func (c *CatalogClient) movies(ctx context.Context, method string, in map[string]any) ([]domain.MovieSummary, error) {
	resp := &structpb.Struct{}
	if err := c.invoke(ctx, method, in, resp); err != nil {
		return nil, err
	}
	var payload moviesPayload
	if err := fromStruct(resp, &payload); err != nil {
		return nil, err
	}
	if payload.Movies == nil {
		payload.Movies = []domain.MovieSummary{}
	}
	return payload.Movies, nil
}

// Close закрывает gRPC соединение.
func (c *CatalogClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

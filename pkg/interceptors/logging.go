package interceptors

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/reddit-gallery/pkg/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// healthService — префикс методов стандартного health-сервиса.
const healthService = "/grpc.health.v1.Health/"

// Logging возвращает unary-интерсептор с контекстным логгером.
//
// Поведение:
//   - x-request-id берётся из metadata, иначе генерируется UUID;
//   - обогащённый логгер (request_id, method, peer) кладётся в контекст;
//   - итоговая запись msg="grpc" с code и dur: Debug для health-проб,
//     Warn для ошибочных кодов, Info для остальных.
func Logging(base *slog.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		rid := requestID(ctx)

		peerStr := "-"
		if p, ok := peer.FromContext(ctx); ok && p != nil && p.Addr != nil {
			peerStr = p.Addr.String()
		}

		l := base.With(
			slog.String("request_id", rid),
			slog.String("method", info.FullMethod),
			slog.String("peer", peerStr),
		)
		ctx = log.Into(ctx, l)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		l.Log(ctx, levelFor(info.FullMethod, code), "grpc",
			slog.String("code", code.String()),
			slog.Duration("dur", time.Since(start)),
		)

		return resp, err
	}
}

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("x-request-id"); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}

	return uuid.NewString()
}

func levelFor(method string, code codes.Code) slog.Level {
	switch {
	case code != codes.OK:
		return slog.LevelWarn
	case strings.HasPrefix(method, healthService):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

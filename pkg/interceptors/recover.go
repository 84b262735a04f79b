package interceptors

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/pribylovaa/reddit-gallery/pkg/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Recover возвращает unary-интерсептор, который перехватывает паники в обработчиках,
// логирует их со стеком и отвечает клиенту codes.Internal без деталей.
// Логгер берётся из контекста (pkg/log), иначе используется base.
func Recover(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			l := log.From(ctx)
			if l == slog.Default() && base != nil {
				l = base
			}

			l.Error("panic_recovered",
				slog.String("method", info.FullMethod),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)

			resp, err = nil, status.Error(codes.Internal, "internal server error")
		}()

		return handler(ctx, req)
	}
}

// interceptors предоставляет набор gRPC-интерсепторов для серверной стороны.
package interceptors

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
)

// WithTimeout возвращает unary-интерсептор, который навешивает таймаут d на контекст
// запроса при его отсутствии.
//
// Контракт:
//  1. d <= 0 — handler вызывается с исходным контекстом;
//  2. дедлайн во входящем ctx не переопределяется;
//  3. иначе ctx оборачивается через context.WithTimeout(ctx, d).
func WithTimeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok || d <= 0 {
			return handler(ctx, req)
		}

		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return handler(ctx, req)
	}
}

// Chain собирает интерсепторы в порядке logging (внешний) -> recover -> timeout -> extra:
// паника логируется логгером запроса и попадает в итоговую запись как Internal.
func Chain(base *slog.Logger, timeout time.Duration, extra ...grpc.UnaryServerInterceptor) grpc.ServerOption {
	chain := append([]grpc.UnaryServerInterceptor{
		Logging(base),
		Recover(base),
		WithTimeout(timeout),
	}, extra...)

	return grpc.ChainUnaryInterceptor(chain...)
}

// Package observability provides the metrics server, gRPC interceptors and
// tracing helpers.
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"healthcare-portal-service/internal/observability/metrics"
)

// UnaryServerInterceptor records per-method call metrics, logs the call
// and turns handler panics into codes.Internal.
func UnaryServerInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				err = recovered(info.FullMethod, r)
			}
			finish(m, log.Debug(), "unary", info.FullMethod, start, err)
		}()
		return handler(ctx, req)
	}
}

// StreamServerInterceptor is the streaming counterpart of
// UnaryServerInterceptor and also tracks open streams.
func StreamServerInterceptor(m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		start := time.Now()
		m.RecordStreamStart()
		defer func() {
			if r := recover(); r != nil {
				err = recovered(info.FullMethod, r)
			}
			m.RecordStreamEnd()
			finish(m, log.Info(), "stream", info.FullMethod, start, err)
		}()
		return handler(srv, ss)
	}
}

func recovered(method string, r any) error {
	log.Error().Str("method", method).Str("panic", fmt.Sprint(r)).Msg("gRPC handler panicked")
	return status.Error(codes.Internal, "internal error")
}

func finish(m *metrics.Metrics, ev *zerolog.Event, kind, method string, start time.Time, err error) {
	code := status.Code(err)
	elapsed := time.Since(start)
	m.RecordGRPCCall(method, code.String(), elapsed.Seconds())

	if code != codes.OK && code != codes.Canceled {
		ev = log.Warn()
	}
	ev.Str("kind", kind).
		Str("method", method).
		Str("code", code.String()).
		Dur("duration", elapsed).
		Msg("gRPC call completed")
}

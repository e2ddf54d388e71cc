package core

import (
	"context"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"

	"go.uber.org/zap"
)

type loggerContextKey struct{}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// Logger returns the logger carried by ctx, or the global zap logger.
func Logger(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*zap.Logger); ok && logger != nil {
		return logger
	}

	return zap.L()
}

func LogError(ctx context.Context, msg string, fields ...zap.Field) {
	Logger(ctx).Error(msg, append(fields, correlationField(ctx)...)...)
}

func LogInfo(ctx context.Context, msg string, fields ...zap.Field) {
	Logger(ctx).Info(msg, append(fields, correlationField(ctx)...)...)
}

func correlationField(ctx context.Context) []zap.Field {
	correlationID, ok := ctx.Value(CorrelationIDContextKey).(string)
	if !ok || correlationID == "" {
		return nil
	}

	return []zap.Field{zap.String("correlation_id", correlationID)}
}

var _ mediator.PipelineBehavior = (*RequestLoggingBehavior)(nil)

type RequestLoggingBehavior struct {
	Logger *zap.Logger
}

func (b *RequestLoggingBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	var logFields []zap.Field

	logFields = append(logFields, correlationField(ctx)...)

	if userID := Session(ctx).UserID; userID != uuid.Nil {
		logFields = append(logFields, zap.Stringer("user_id", userID))
	}

	if request != nil {
		logFields = append(logFields, zap.Any("request_body", request))
	}

	b.Logger.Info("processing request", logFields...)

	return next(ctx, request)
}

var _ mediator.PipelineBehavior = (*HandlerErrorLoggingBehavior)(nil)

type HandlerErrorLoggingBehavior struct {
	Logger *zap.Logger
}

func (b *HandlerErrorLoggingBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	response, err := next(ctx, request)
	if err != nil {
		commandErr := AsCommandError(err)
		fields := append(correlationField(ctx), zap.String("code", string(commandErr.Code)))

		if commandErr.Internal() {
			b.Logger.Error("handler returned error", append(fields, zap.Error(err))...)
		} else {
			b.Logger.Warn("handler rejected request", append(fields, zap.String("reason", commandErr.Message))...)
		}
	}

	return response, err
}

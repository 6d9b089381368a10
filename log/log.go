package log

import (
	"context"
	"dnshome/common"

	"go.uber.org/zap"
)

// logCtx carries both flavours of one logger, so neither L nor S converts
// on every call.
type logCtx struct {
	context.Context

	logger  *zap.Logger
	sLogger *zap.SugaredLogger
}

type logType struct{}

func (c *logCtx) Value(k any) any {
	if _, ok := k.(logType); ok {
		return c.logger
	}

	return c.Context.Value(k)
}

func derive(parent context.Context, logger *zap.Logger) context.Context {
	return &logCtx{Context: parent, logger: logger, sLogger: logger.Sugar()}
}

func WithLogger(parent context.Context, logger *zap.Logger) context.Context {
	return derive(parent, logger)
}

// L returns the logger in ctx, or the global zap logger when there is none.
func L(ctx context.Context) *zap.Logger {
	if l, ok := ctx.(*logCtx); ok {
		return l.logger
	}

	if l, _ := ctx.Value(logType{}).(*zap.Logger); l != nil {
		return l
	}

	return zap.L()
}

// S returns sugared version of L.
func S(ctx context.Context) *zap.SugaredLogger {
	if s, ok := ctx.(*logCtx); ok {
		return s.sLogger
	}

	return L(ctx).Sugar()
}

func With(ctx context.Context, tags ...zap.Field) context.Context {
	return derive(ctx, L(ctx).With(tags...))
}

func SWith(ctx context.Context, tags ...interface{}) context.Context {
	return derive(ctx, S(ctx).With(tags...).Desugar())
}

// ForFamily scopes every entry logged through ctx to one address family.
func ForFamily(ctx context.Context, family common.Family) context.Context {
	return With(ctx, Family(family))
}

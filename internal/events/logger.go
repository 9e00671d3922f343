package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// ZapAdapter routes watermill logs through zap.
type ZapAdapter struct {
	log    *zap.Logger
	fields watermill.LogFields
}

func NewZapAdapter(log *zap.Logger) *ZapAdapter {
	return &ZapAdapter{log: log.Named("watermill")}
}

func (a *ZapAdapter) zapFields(extra watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(a.fields)+len(extra))
	for k, v := range a.fields {
		out = append(out, zap.Any(k, v))
	}
	for k, v := range extra {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (a *ZapAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(a.zapFields(fields), zap.Error(err))...)
}

func (a *ZapAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, a.zapFields(fields)...)
}

func (a *ZapAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, a.zapFields(fields)...)
}

func (a *ZapAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, a.zapFields(fields)...)
}

func (a *ZapAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &ZapAdapter{log: a.log, fields: a.fields.Add(fields)}
}

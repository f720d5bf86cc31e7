package logger

import (
	"time"

	"go.uber.org/zap"
)

// HTTP fields.

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }
func URL(v string) zap.Field       { return zap.String("url", v) }

// Domain fields.

func UserID(v string) zap.Field   { return zap.String("user_id", v) }
func ClientID(v string) zap.Field { return zap.String("client_id", v) }
func TokenID(v string) zap.Field  { return zap.String("token_id", v) }
func Scopes(v []string) zap.Field { return zap.Strings("scopes", v) }

// Structure fields.

func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }

// Generic fields.

func Err(err error) zap.Field             { return zap.Error(err) }
func String(k, v string) zap.Field        { return zap.String(k, v) }
func Int(k string, v int) zap.Field       { return zap.Int(k, v) }
func Any(k string, v any) zap.Field       { return zap.Any(k, v) }
func Duration(v time.Duration) zap.Field  { return zap.Duration("duration", v) }
func Time(k string, v time.Time) zap.Field { return zap.Time(k, v) }

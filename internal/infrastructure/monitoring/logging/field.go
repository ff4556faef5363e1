package logging

import (
	"time"

	"go.uber.org/zap"
)

// Field is one key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, val string) Field { return Field{Key: key, Value: val} }

func Int(key string, val int) Field { return Field{Key: key, Value: val} }

func Int64(key string, val int64) Field { return Field{Key: key, Value: val} }

func Uint64(key string, val uint64) Field { return Field{Key: key, Value: val} }

func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }

func Bool(key string, val bool) Field { return Field{Key: key, Value: val} }

func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }

// Any carries a value none of the typed constructors fit.
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }

// Err records err's message under "error"; a nil err logs as "<nil>".
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out[i] = zap.String(f.Key, v)
		case int:
			out[i] = zap.Int(f.Key, v)
		case int64:
			out[i] = zap.Int64(f.Key, v)
		case uint64:
			out[i] = zap.Uint64(f.Key, v)
		case float64:
			out[i] = zap.Float64(f.Key, v)
		case bool:
			out[i] = zap.Bool(f.Key, v)
		case time.Duration:
			out[i] = zap.Duration(f.Key, v)
		case error:
			out[i] = zap.NamedError(f.Key, v)
		default:
			out[i] = zap.Any(f.Key, v)
		}
	}
	return out
}

package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// Init configures the process-wide structured logger. Events are
// emitted as JSON lines keyed by an event name plus arbitrary fields.
func Init() {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.MessageKey = "event"

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		zap.InfoLevel,
	)
	log = zap.New(core)
}

func ensure() *zap.Logger {
	if log == nil {
		Init()
	}
	return log
}

func zapFields(fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		out = append(out, zap.Any(key, value))
	}
	return out
}

func Info(event string, fields map[string]interface{}) {
	ensure().Info(event, zapFields(fields)...)
}

func InfoWithUser(userID, event string, fields map[string]interface{}) {
	ensure().Info(event, append(zapFields(fields), zap.String("user_id", userID))...)
}

func Warn(event string, fields map[string]interface{}) {
	ensure().Warn(event, zapFields(fields)...)
}

func Error(event string, err error, fields map[string]interface{}) {
	ensure().Error(event, append(zapFields(fields), zap.Error(err))...)
}

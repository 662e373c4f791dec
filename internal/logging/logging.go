package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Setup builds the application logger. Production emits JSON lines,
// development a human readable console format. Stacktraces are only
// attached to fatal entries. The returned func flushes buffered entries.
func Setup(isProduction bool, level zapcore.Level, out io.Writer) (*zap.Logger, func() error) {
	if out == nil {
		out = os.Stdout
	}

	var encoderConfig zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if isProduction {
		encoderConfig = zap.NewProductionEncoderConfig()
		setKeys(&encoderConfig)
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		setKeys(&encoderConfig)
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel))
	logger = logger.With(zap.String("app", "booknotes"))

	flusher := func() error {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("[flush logs]: %w", err)
		}
		return nil
	}
	return logger, flusher
}

func setKeys(c *zapcore.EncoderConfig) {
	c.TimeKey = "ts"
	c.EncodeTime = zapcore.ISO8601TimeEncoder
	c.LevelKey = "lvl"
	c.NameKey = "name"
	c.MessageKey = "msg"
	c.CallerKey = "caller"
	c.StacktraceKey = "skt"
}

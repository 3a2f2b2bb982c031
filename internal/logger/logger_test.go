package logger

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Init("chatty"))
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	previous := Log
	Log = zap.New(core).Sugar()
	t.Cleanup(func() {
		Log = previous
	})

	handler := WithLoggingHTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/links/new", nil))

	assert.Equal(t, http.StatusCreated, recorder.Code)
	require.Equal(t, 1, logs.Len())
	message := logs.All()[0].Message
	assert.Contains(t, message, "/links/new")
	assert.Contains(t, message, "status 201")
	assert.Contains(t, message, "size 7")
}

func TestSyncIgnoresPipes(t *testing.T) {
	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = reader.Close()
		_ = writer.Close()
	})

	previous := Log
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	Log = zap.New(zapcore.NewCore(encoder, zapcore.AddSync(writer), zapcore.DebugLevel)).Sugar()
	t.Cleanup(func() {
		Log = previous
	})

	assert.NoError(t, Sync())
}

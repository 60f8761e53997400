package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("development", "debug", nil).Level)
	assert.Equal(t, logrus.InfoLevel, New("development", "bogus", nil).Level)
	assert.IsType(t, &logrus.JSONFormatter{}, New("production", "info", nil).Formatter)
}

func TestMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := New("production", "info", &buf)

	r := gin.New()
	r.Use(Middleware(logger, "user_id"))
	r.GET("/things/:id", func(c *gin.Context) {
		c.Set("user_id", uint(7))
		c.JSON(http.StatusNotFound, gin.H{"error": "missing"})
	})

	req, _ := http.NewRequest("GET", "/things/3", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "/things/:id", entry["path"])
	assert.Equal(t, float64(404), entry["status"])
	assert.Equal(t, float64(7), entry["user_id"])
}

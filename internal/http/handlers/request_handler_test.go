package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RequestHandler{requests: nil}
	r.POST("/requests", handler.Create)

	req, _ := http.NewRequest("POST", "/requests", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandler_Claim_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RequestHandler{requests: nil}
	r.POST("/requests/:id/claim", handler.Claim)

	req, _ := http.NewRequest("POST", "/requests/4f3a2b1c-0000-0000-0000-000000000000/claim", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandler_Release_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RequestHandler{requests: nil}
	r.POST("/requests/:id/release", handler.Release)

	req, _ := http.NewRequest("POST", "/requests/not-a-uuid/release", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RequestHandler{requests: nil}
	r.GET("/requests/:id", handler.Get)

	req, _ := http.NewRequest("GET", "/requests/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandler_Override_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RequestHandler{requests: nil}
	r.PUT("/requests/:id/status", handler.Override)

	req, _ := http.NewRequest("PUT", "/requests/4f3a2b1c-0000-0000-0000-000000000000/status", strings.NewReader(`{"status":"pending"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandler_History_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &RequestHandler{requests: nil}
	r.GET("/requests/history", handler.History)

	req, _ := http.NewRequest("GET", "/requests/history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

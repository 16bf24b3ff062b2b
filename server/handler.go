package server

import (
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func (s *Server) IndexHandler(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func (s *Server) HealthHandler(c *gin.Context) {
	model, device := "not loaded", "unknown"
	if rec := s.current(); rec != nil {
		model, device = rec.ModelName(), rec.Device()
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"model":  model,
		"device": device,
	})
}

func (s *Server) RecognizeHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("No image file provided. Send image in 'image' field."))
		return
	}
	if fileHeader.Filename == "" {
		c.JSON(http.StatusBadRequest, errorBody("Empty filename"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Failed to open uploaded file"))
		return
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Failed to read uploaded file"))
		return
	}

	s.respond(c, imageBytes, topKFromForm(c))
}

type base64Request struct {
	Image string `json:"image"`
	TopK  int    `json:"top_k"`
}

func (s *Server) RecognizeBase64Handler(c *gin.Context) {
	var req base64Request
	if err := c.ShouldBindJSON(&req); err != nil || req.Image == "" {
		c.JSON(http.StatusBadRequest, errorBody("No image data. Send JSON with 'image' field."))
		return
	}

	payload := req.Image
	// Clients often send data-URL payloads like "data:image/png;base64,....".
	if i := strings.Index(payload, "base64,"); i >= 0 {
		payload = payload[i+len("base64,"):]
	}

	imageBytes, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid base64 image data"))
		return
	}

	s.respond(c, imageBytes, req.TopK)
}

func (s *Server) respond(c *gin.Context, imageBytes []byte, topK int) {
	rec, err := s.instance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("Model unavailable: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, rec.Predict(imageBytes, topK))
}

func topKFromForm(c *gin.Context) int {
	if v := c.PostForm("top_k"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			return k
		}
	}
	return 0
}

func errorBody(msg string) gin.H {
	return gin.H{"success": false, "error": msg}
}

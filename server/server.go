package server

import (
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/jihadXYZ/croprec/config"
	"github.com/jihadXYZ/croprec/onnx"
	"github.com/jihadXYZ/croprec/recognizer"
)

// Server holds the recognizer behind a lazy guard. The first prediction
// request triggers the model load; concurrent first requests block on the
// mutex so Provider.Load runs at most once per process.
type Server struct {
	provider onnx.Provider
	primary  string
	fallback string

	mu      sync.Mutex
	rec     *recognizer.Recognizer
	initErr error
	inited  bool
}

func New(provider onnx.Provider, cfg config.Config) *Server {
	return &Server{
		provider: provider,
		primary:  cfg.PrimaryModel,
		fallback: cfg.FallbackModel,
	}
}

func (s *Server) Register(r *gin.Engine) {
	r.Use(CORSMiddleware())
	r.GET("/", s.IndexHandler)
	r.GET("/health", s.HealthHandler)
	r.POST("/recognize", s.RecognizeHandler)
	r.POST("/recognize-base64", s.RecognizeBase64Handler)
}

// instance returns the shared recognizer, loading it on first call. A failed
// load is cached; the process keeps answering with the same error.
func (s *Server) instance() (*recognizer.Recognizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		s.inited = true
		slog.Info("Initializing crop recognizer", slog.String("model", s.primary))
		rec, err := recognizer.New(s.provider, s.primary, s.fallback)
		if err != nil {
			slog.Error("Failed to initialize crop recognizer", slog.String("error", err.Error()))
			s.initErr = err
			return nil, err
		}
		s.rec = rec
		slog.Info("Crop recognizer ready",
			slog.String("model", rec.ModelName()),
			slog.String("device", rec.Device()))
	}
	return s.rec, s.initErr
}

// current returns the recognizer if already loaded, without triggering a load.
func (s *Server) current() *recognizer.Recognizer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

package ingestion

import (
	"time"

	"github.com/aevon-lab/salespulse/internal/core/storage"
	"github.com/gin-gonic/gin"
)

type Service struct {
	store            storage.EventStore
	maxBodySizeBytes int
	nowFn            func() time.Time
}

func NewService(repo storage.EventStore, maxBodySizeMB int) *Service {
	if repo == nil {
		panic("ingestion: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            repo,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/sales", s.IngestHandler)
}

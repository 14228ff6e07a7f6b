// Package server exposes the HTTP trigger and read surface: health, upload
// status, manual extraction trigger, and XLSX export download.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bizledger/docextract/internal/async"
	"github.com/bizledger/docextract/internal/common"
	"github.com/bizledger/docextract/internal/export"
	"github.com/bizledger/docextract/internal/repository"
)

type Server struct {
	uploads repository.UploadRepository
	queue   *async.ExtractQueue
	export  *export.Service
	logger  *slog.Logger
}

func New(uploads repository.UploadRepository, queue *async.ExtractQueue, exp *export.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{uploads: uploads, queue: queue, export: exp, logger: logger}
}

// Router builds the gin engine. When no allowed origins are configured the
// API is same-origin only.
func (s *Server) Router(cfg common.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
		r.Use(cors.New(corsConfig))
	}

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	{
		api.GET("/uploads/:id", s.getUpload)
		api.POST("/uploads/:id/extract", s.triggerExtract)
		api.GET("/stores/:id/records/export.xlsx", s.exportRecords)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getUpload(c *gin.Context) {
	u, err := s.uploads.GetUpload(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
			return
		}
		s.logger.Error("http.upload.get_failed", "upload_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"upload_id":     u.ID,
		"store_id":      u.StoreID,
		"file_type":     string(u.FileType),
		"storage_path":  u.StoragePath,
		"uploaded_at":   u.UploadedAt,
		"status":        string(u.Status),
		"error_message": u.ErrorMessage,
	})
}

// triggerExtract enqueues a background run for an upload. Terminal uploads
// are accepted too; the run itself is a no-op for them.
func (s *Server) triggerExtract(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.uploads.GetUpload(c.Request.Context(), id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
			return
		}
		s.logger.Error("http.extract.lookup_failed", "upload_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !s.queue.Enqueue(id) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "extraction queue unavailable"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"upload_id": id, "queued": true})
}

func (s *Server) exportRecords(c *gin.Context) {
	storeID := c.Param("id")
	from, ok := parseDateParam(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(c, "to")
	if !ok {
		return
	}

	data, err := s.export.ExportRecordsXLSX(c.Request.Context(), storeID, from, to)
	if err != nil {
		s.logger.Error("http.export.failed", "store_id", storeID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	fileName := fmt.Sprintf("records-%s-%s.xlsx", storeID, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func parseDateParam(c *gin.Context, name string) (*time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s date, expected YYYY-MM-DD", name)})
		return nil, false
	}
	return &t, true
}

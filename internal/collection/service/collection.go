package service

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediatrack/internal/auth/middleware"
	"mediatrack/internal/collection/biz"
	"mediatrack/internal/pkg/logger"
	"mediatrack/internal/pkg/response"
)

type CollectionService struct {
	uc  *biz.CollectionUseCase
	log *logger.Logger
}

func NewCollectionService(uc *biz.CollectionUseCase, log *logger.Logger) *CollectionService {
	return &CollectionService{uc: uc, log: log}
}

func (s *CollectionService) List(c *gin.Context) {
	items, err := s.uc.List(c.Request.Context(), middleware.Username(c))
	if err != nil {
		s.log.Error("failed to list collection", zap.Error(err))
		response.Internal(c, "failed to list collection")
		return
	}
	if items == nil {
		items = []biz.Item{}
	}
	response.Success(c, gin.H{"items": items})
}

func (s *CollectionService) Save(c *gin.Context) {
	var item biz.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	saved, err := s.uc.Save(c.Request.Context(), middleware.Username(c), item)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, saved)
}

func (s *CollectionService) Remove(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, "item id is required")
		return
	}
	if err := s.uc.Remove(c.Request.Context(), middleware.Username(c), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"removed": id})
}

type reorderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

func (s *CollectionService) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := s.uc.Reorder(c.Request.Context(), middleware.Username(c), req.IDs); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"count": len(req.IDs)})
}

// Export streams the collection as a JSON attachment.
func (s *CollectionService) Export(c *gin.Context) {
	username := middleware.Username(c)
	items, err := s.uc.Export(c.Request.Context(), username)
	if err != nil {
		s.log.Error("failed to export collection", zap.Error(err))
		response.Internal(c, "failed to export collection")
		return
	}
	if items == nil {
		items = []biz.Item{}
	}

	filename := fmt.Sprintf("mediatrack-%s-%s.json", username, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(200, gin.H{"exportedAt": time.Now().Format(time.RFC3339), "items": items})
}

type importRequest struct {
	Items []biz.Item `json:"items" binding:"required"`
}

func (s *CollectionService) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	count, err := s.uc.Import(c.Request.Context(), middleware.Username(c), req.Items)
	if err != nil {
		response.Fail(c, err)
		return
	}
	s.log.Info("collection imported",
		zap.String("username", middleware.Username(c)),
		zap.Int("count", count))
	response.Success(c, gin.H{"imported": count})
}

func (s *CollectionService) RegisterRoutes(r *gin.RouterGroup) {
	items := r.Group("/collection")
	{
		items.GET("", s.List)
		items.POST("", s.Save)
		items.DELETE("/:id", s.Remove)
		items.PUT("/reorder", s.Reorder)
		items.GET("/export", s.Export)
		items.POST("/import", s.Import)
	}
}

package service

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediatrack/internal/auth/biz"
	"mediatrack/internal/auth/middleware"
	"mediatrack/internal/pkg/logger"
	"mediatrack/internal/pkg/response"
)

type AuthService struct {
	uc  *biz.AuthUseCase
	log *logger.Logger
}

func NewAuthService(uc *biz.AuthUseCase, log *logger.Logger) *AuthService {
	return &AuthService{uc: uc, log: log}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (s *AuthService) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := s.uc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.log.Warn("registration failed",
			zap.String("username", req.Username),
			zap.Error(err))
		response.Fail(c, err)
		return
	}

	response.Created(c, authResponse{Username: result.Username, Token: result.Token})
}

func (s *AuthService) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := s.uc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.log.Warn("login failed",
			zap.String("username", req.Username),
			zap.String("ip", c.ClientIP()),
			zap.Error(err))
		response.Fail(c, err)
		return
	}

	response.Success(c, authResponse{Username: result.Username, Token: result.Token})
}

func (s *AuthService) Me(c *gin.Context) {
	response.Success(c, gin.H{"username": middleware.Username(c)})
}

// RegisterRoutes mounts the public auth endpoints; Me is mounted by the
// server under the authenticated group.
func (s *AuthService) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", s.Register)
		authGroup.POST("/login", s.Login)
	}
}

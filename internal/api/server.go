package api

import (
	"fmt"
	"net/http"

	"github.com/qarote/qarote/internal/alert"
	"github.com/qarote/qarote/internal/auth"
	"github.com/qarote/qarote/internal/database"
	"github.com/qarote/qarote/internal/models"
	"github.com/qarote/qarote/internal/monitor"

	"github.com/gin-gonic/gin"
)

type Server struct {
	poller       *monitor.Poller
	alertManager *alert.AlertManager
	ruleManager  *alert.RuleManager
	router       *gin.Engine
}

func NewServer(poller *monitor.Poller, alertManager *alert.AlertManager, ruleManager *alert.RuleManager) *Server {
	server := &Server{
		poller:       poller,
		alertManager: alertManager,
		ruleManager:  ruleManager,
		router:       gin.Default(),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Public routes
	s.router.POST("/api/v1/auth/login", s.login)
	s.router.POST("/api/v1/auth/register", s.register)

	// Protected routes (require authentication)
	api := s.router.Group("/api/v1")
	api.Use(auth.AuthMiddleware())

	// Server management and live views
	servers := api.Group("/servers")
	{
		servers.GET("", s.listServers)
		servers.POST("", auth.RequireRole(models.RoleAdmin), s.createServer)
		servers.PUT("/:id", auth.RequireRole(models.RoleAdmin), s.updateServer)
		servers.DELETE("/:id", auth.RequireRole(models.RoleAdmin), s.deleteServer)
		servers.GET("/:id/overview", s.getServerOverview)
		servers.GET("/:id/queues", s.getServerQueues)
		servers.GET("/:id/nodes", s.getServerNodes)
	}

	// Alert management endpoints
	api.GET("/alerts", s.listAlerts)
	api.PUT("/alerts/:id/acknowledge", auth.RequireRole(models.RoleAdmin, models.RoleUser), s.acknowledgeAlert)
	api.PUT("/alerts/:id/resolve", auth.RequireRole(models.RoleAdmin, models.RoleUser), s.resolveAlert)

	// Rule management endpoints
	rules := api.Group("/rules")
	{
		rules.GET("", s.listRules)
		rules.GET("/:id", s.getRule)
		rules.POST("", auth.RequireRole(models.RoleAdmin), s.createRule)
		rules.PUT("/:id", auth.RequireRole(models.RoleAdmin), s.updateRule)
		rules.DELETE("/:id", auth.RequireRole(models.RoleAdmin), s.deleteRule)
		rules.PUT("/:id/enable", auth.RequireRole(models.RoleAdmin), s.enableRule)
		rules.PUT("/:id/disable", auth.RequireRole(models.RoleAdmin), s.disableRule)
		rules.POST("/validate", auth.RequireRole(models.RoleAdmin), s.validateRule)
		rules.POST("/import", auth.RequireRole(models.RoleAdmin), s.importRules)
		rules.GET("/export", auth.RequireRole(models.RoleAdmin), s.exportRules)
	}

	// Notification channel endpoints
	channels := api.Group("/channels")
	{
		channels.GET("", s.listChannels)
		channels.POST("", auth.RequireRole(models.RoleAdmin), s.createChannel)
		channels.PUT("/:id", auth.RequireRole(models.RoleAdmin), s.updateChannel)
		channels.DELETE("/:id", auth.RequireRole(models.RoleAdmin), s.deleteChannel)
		channels.POST("/:id/test", auth.RequireRole(models.RoleAdmin), s.testChannel)
	}

	// Poller metrics
	api.GET("/metrics", s.getMetrics)

	// User management endpoints
	admin := api.Group("/admin")
	admin.Use(auth.RequireRole(models.RoleAdmin))
	admin.GET("/users", s.listUsers)
	admin.POST("/users", s.createUser)
	admin.PUT("/users/:id", s.updateUser)
	admin.DELETE("/users/:id", s.deleteUser)
}

func (s *Server) Start(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

func workspaceID(c *gin.Context) uint {
	return c.GetUint("workspace_id")
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.poller.GetMetrics())
}

func (s *Server) login(c *gin.Context) {
	var loginReq struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.GetDB().Where("username = ?", loginReq.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !user.CheckPassword(loginReq.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// register creates a new workspace with the caller as its admin.
func (s *Server) register(c *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required"`
		Email     string `json:"email" binding:"required"`
		Password  string `json:"password" binding:"required"`
		Workspace string `json:"workspace" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()

	workspace := models.Workspace{Name: req.Workspace}
	if err := db.Create(&workspace).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "workspace name already taken"})
		return
	}

	user := models.User{
		Username:    req.Username,
		Email:       req.Email,
		Role:        models.RoleAdmin,
		WorkspaceID: workspace.ID,
		IsActive:    true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}
	if err := db.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
		return
	}

	token, err := auth.GenerateToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "workspace_id": workspace.ID})
}

func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := database.GetDB().Where("workspace_id = ?", workspaceID(c)).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) createUser(c *gin.Context) {
	var req struct {
		Username string      `json:"username" binding:"required"`
		Email    string      `json:"email" binding:"required"`
		Password string      `json:"password" binding:"required"`
		Role     models.Role `json:"role" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{
		Username:    req.Username,
		Email:       req.Email,
		Role:        req.Role,
		WorkspaceID: workspaceID(c),
		IsActive:    true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}
	if err := database.GetDB().Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (s *Server) updateUser(c *gin.Context) {
	var user models.User
	if err := database.GetDB().Where("workspace_id = ?", workspaceID(c)).First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var req struct {
		Role     *models.Role `json:"role"`
		IsActive *bool        `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := database.GetDB().Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) deleteUser(c *gin.Context) {
	result := database.GetDB().Where("workspace_id = ?", workspaceID(c)).Delete(&models.User{}, c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully"})
}

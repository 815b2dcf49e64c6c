package api

import (
	"net/http"
	"strconv"

	"github.com/qarote/qarote/internal/database"
	"github.com/qarote/qarote/internal/models"
	"github.com/qarote/qarote/internal/rabbitmq"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (s *Server) findServer(c *gin.Context) (*models.Server, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid server ID"})
		return nil, false
	}

	var server models.Server
	if err := database.GetDB().Where("workspace_id = ?", workspaceID(c)).First(&server, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "server not found"})
		return nil, false
	}
	return &server, true
}

func (s *Server) listServers(c *gin.Context) {
	var servers []models.Server
	if err := database.GetDB().Where("workspace_id = ?", workspaceID(c)).Find(&servers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, servers)
}

func (s *Server) createServer(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Host     string `json:"host" binding:"required"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
		UseTLS   bool   `json:"use_tls"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	server := models.Server{
		WorkspaceID: workspaceID(c),
		Name:        req.Name,
		Host:        req.Host,
		Port:        req.Port,
		Username:    req.Username,
		Password:    req.Password,
		UseTLS:      req.UseTLS,
		Enabled:     true,
	}
	if server.Port == 0 {
		server.Port = 15672
	}

	if err := database.GetDB().Create(&server).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Seed the server with the default rule set
	if err := s.ruleManager.CreateDefaultRules(server.WorkspaceID, server.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, server)
}

func (s *Server) updateServer(c *gin.Context) {
	server, ok := s.findServer(c)
	if !ok {
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Host     *string `json:"host"`
		Port     *int    `json:"port"`
		Username *string `json:"username"`
		Password *string `json:"password"`
		UseTLS   *bool   `json:"use_tls"`
		Enabled  *bool   `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		server.Name = *req.Name
	}
	if req.Host != nil {
		server.Host = *req.Host
	}
	if req.Port != nil {
		server.Port = *req.Port
	}
	if req.Username != nil {
		server.Username = *req.Username
	}
	if req.Password != nil {
		server.Password = *req.Password
	}
	if req.UseTLS != nil {
		server.UseTLS = *req.UseTLS
	}
	if req.Enabled != nil {
		server.Enabled = *req.Enabled
	}

	if err := database.GetDB().Save(server).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, server)
}

func (s *Server) deleteServer(c *gin.Context) {
	server, ok := s.findServer(c)
	if !ok {
		return
	}

	// Soft deletes don't trigger DB-level cascades, so drop the server's
	// rules and alerts in the same transaction.
	db := database.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("server_id = ?", server.ID).Delete(&models.AlertRule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("server_id = ?", server.ID).Delete(&models.Alert{}).Error; err != nil {
			return err
		}
		return tx.Delete(server).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "server deleted successfully"})
}

func (s *Server) getServerOverview(c *gin.Context) {
	server, ok := s.findServer(c)
	if !ok {
		return
	}

	overview, err := rabbitmq.NewClient(server).Overview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (s *Server) getServerQueues(c *gin.Context) {
	server, ok := s.findServer(c)
	if !ok {
		return
	}

	queues, err := rabbitmq.NewClient(server).Queues(c.Request.Context())
	if err != nil {
		// Fall back to the poller's last snapshot when the live call fails
		if snap, found := s.poller.LatestSnapshot(server.ID); found {
			c.JSON(http.StatusOK, snap.Queues)
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, queues)
}

func (s *Server) getServerNodes(c *gin.Context) {
	server, ok := s.findServer(c)
	if !ok {
		return
	}

	nodes, err := rabbitmq.NewClient(server).Nodes(c.Request.Context())
	if err != nil {
		if snap, found := s.poller.LatestSnapshot(server.ID); found {
			c.JSON(http.StatusOK, snap.Nodes)
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, nodes)
}

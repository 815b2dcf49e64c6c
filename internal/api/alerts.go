package api

import (
	"net/http"
	"strconv"

	"github.com/qarote/qarote/internal/database"
	"github.com/qarote/qarote/internal/models"

	"github.com/gin-gonic/gin"
)

func (s *Server) listAlerts(c *gin.Context) {
	alerts, err := s.alertManager.List(workspaceID(c), c.Query("status"), c.Query("severity"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (s *Server) acknowledgeAlert(c *gin.Context) {
	alertID, ok := s.findAlertID(c)
	if !ok {
		return
	}

	user := c.MustGet("user").(models.User)
	if err := s.alertManager.Acknowledge(alertID, user.Username); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "alert acknowledged"})
}

func (s *Server) resolveAlert(c *gin.Context) {
	alertID, ok := s.findAlertID(c)
	if !ok {
		return
	}

	user := c.MustGet("user").(models.User)
	if err := s.alertManager.Resolve(alertID, user.Username); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "alert resolved"})
}

// findAlertID parses the path ID and checks the alert belongs to the
// caller's workspace.
func (s *Server) findAlertID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert ID"})
		return 0, false
	}

	var alert models.Alert
	if err := database.GetDB().Where("workspace_id = ?", workspaceID(c)).First(&alert, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return 0, false
	}
	return alert.ID, true
}

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/qarote/qarote/internal/database"
	"github.com/qarote/qarote/internal/models"

	"github.com/gin-gonic/gin"
)

// channelRequest exists because Token and Secret are write-only: the model
// never serializes them back out.
type channelRequest struct {
	Name         string             `json:"name"`
	Type         models.ChannelType `json:"type"`
	Enabled      *bool              `json:"enabled"`
	URL          string             `json:"url"`
	Token        string             `json:"token"`
	SlackChannel string             `json:"slack_channel"`
	Secret       string             `json:"secret"`
	CustomValue  string             `json:"custom_value"`
	Recipients   string             `json:"recipients"`
}

func (r *channelRequest) apply(channel *models.NotificationChannel) {
	channel.Name = r.Name
	channel.Type = r.Type
	if r.Enabled != nil {
		channel.Enabled = *r.Enabled
	}
	channel.URL = r.URL
	if r.Token != "" {
		channel.Token = r.Token
	}
	channel.SlackChannel = r.SlackChannel
	if r.Secret != "" {
		channel.Secret = r.Secret
	}
	channel.CustomValue = r.CustomValue
	channel.Recipients = r.Recipients
}

func (s *Server) listChannels(c *gin.Context) {
	var channels []models.NotificationChannel
	if err := database.GetDB().Where("workspace_id = ?", workspaceID(c)).Find(&channels).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, channels)
}

func (s *Server) createChannel(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel := models.NotificationChannel{
		WorkspaceID: workspaceID(c),
		Enabled:     true,
	}
	req.apply(&channel)

	if err := validateChannel(&channel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := database.GetDB().Create(&channel).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, channel)
}

func (s *Server) updateChannel(c *gin.Context) {
	channel, ok := s.findChannel(c)
	if !ok {
		return
	}

	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.apply(channel)

	if err := validateChannel(channel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := database.GetDB().Save(channel).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, channel)
}

func (s *Server) deleteChannel(c *gin.Context) {
	channel, ok := s.findChannel(c)
	if !ok {
		return
	}

	if err := database.GetDB().Delete(channel).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "channel deleted successfully"})
}

// testChannel pushes a synthetic alert through the channel and reports the
// delivery outcome.
func (s *Server) testChannel(c *gin.Context) {
	channel, ok := s.findChannel(c)
	if !ok {
		return
	}

	var workspace models.Workspace
	if err := database.GetDB().First(&workspace, workspaceID(c)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := s.alertManager.TestChannel(c.Request.Context(), &workspace, *channel)
	c.JSON(http.StatusOK, result)
}

func (s *Server) findChannel(c *gin.Context) (*models.NotificationChannel, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel ID"})
		return nil, false
	}

	var channel models.NotificationChannel
	if err := database.GetDB().Where("workspace_id = ?", workspaceID(c)).First(&channel, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return nil, false
	}
	return &channel, true
}

func validateChannel(channel *models.NotificationChannel) error {
	if channel.Name == "" {
		return fmt.Errorf("channel name is required")
	}

	switch channel.Type {
	case models.ChannelSlackWebhook, models.ChannelWebhook:
		if channel.URL == "" {
			return fmt.Errorf("url is required for %s channels", channel.Type)
		}
	case models.ChannelSlackToken:
		if channel.Token == "" || channel.SlackChannel == "" {
			return fmt.Errorf("token and slack_channel are required for %s channels", channel.Type)
		}
	case models.ChannelEmail:
		if len(channel.RecipientList()) == 0 {
			return fmt.Errorf("recipients are required for email channels")
		}
	default:
		return fmt.Errorf("invalid channel type: %s", channel.Type)
	}

	return nil
}

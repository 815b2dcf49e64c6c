package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Server is a RabbitMQ node whose management API gets polled.
type Server struct {
	gorm.Model
	WorkspaceID uint   `gorm:"index;not null" json:"workspace_id"`
	Name        string `gorm:"not null" json:"name"`
	Host        string `gorm:"not null" json:"host"`
	Port        int    `gorm:"default:15672" json:"port"`
	Username    string `json:"username"`
	Password    string `json:"-"`
	UseTLS      bool   `gorm:"default:false" json:"use_tls"`
	Enabled     bool   `gorm:"default:true" json:"enabled"`
	LastPolled  *time.Time `json:"last_polled"`
	LastError   string     `json:"last_error,omitempty"`
}

// ManagementURL returns the base URL of the server's management API.
func (s *Server) ManagementURL() string {
	scheme := "http"
	if s.UseTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, s.Host, s.Port)
}

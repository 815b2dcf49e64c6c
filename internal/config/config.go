package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port      int
		JWTSecret string
	}
	Database struct {
		Path string
	}
	Monitor struct {
		IntervalSeconds int
	}
	Notify struct {
		SlackUsername string
		Email         struct {
			SMTPHost string
			SMTPPort int
			From     string
			Password string
		}
	}
}

// LoadConfig loads the configuration from config.yaml
func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	var config Config

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use default values
			config.Database.Path = "data/qarote.db"
			config.Server.Port = 8080
			config.Monitor.IntervalSeconds = 30
			config.Notify.SlackUsername = "Qarote"

			viper.Set("database.path", config.Database.Path)
			viper.Set("server.port", config.Server.Port)
			viper.Set("monitor.intervalseconds", config.Monitor.IntervalSeconds)

			if err := os.MkdirAll("data", 0755); err != nil {
				fmt.Printf("Warning: Failed to create data directory: %v\n", err)
			}

			if err := viper.SafeWriteConfig(); err != nil {
				fmt.Printf("Warning: Failed to write default config: %v\n", err)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
		}
	} else {
		if err := viper.Unmarshal(&config); err != nil {
			fmt.Printf("Error unmarshaling config: %v\n", err)
		}
	}

	if config.Monitor.IntervalSeconds <= 0 {
		config.Monitor.IntervalSeconds = 30
	}
	if config.Notify.SlackUsername == "" {
		config.Notify.SlackUsername = "Qarote"
	}
	if secret := os.Getenv("QAROTE_JWT_SECRET"); secret != "" {
		config.Server.JWTSecret = secret
	}

	return &config
}

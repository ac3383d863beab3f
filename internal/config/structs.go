package config

import (
	"time"

	"github.com/emolog/emolog/internal/logger"
)

// Auth holds token issuing settings.
type Auth struct {
	JWTSecret       string        // shared HMAC secret for signing tokens
	AccessTokenTTL  time.Duration // lifetime of access tokens
	RefreshTokenTTL time.Duration // lifetime of refresh tokens
}

// Backup holds database backup settings.
type Backup struct {
	Enabled       bool
	Dir           string // target directory for dump files
	MysqldumpPath string // override path to the mysqldump binary
	MysqlPath     string // override path to the mysql binary (restore)
}

// Storage holds on-disk file storage settings.
type Storage struct {
	AvatarDir string // where uploaded avatars are written
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Backup    Backup
	Storage   Storage
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}

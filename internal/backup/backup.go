// Package backup dumps and restores the MySQL database via the mysqldump
// and mysql client binaries.
package backup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/emolog/emolog/internal/config"
)

var (
	// ErrBackupDisabled is returned when backups are not configured.
	ErrBackupDisabled = errors.New("backups are disabled")

	// ErrBackupNotFound is returned when a named backup file does not
	// exist in the backup directory.
	ErrBackupNotFound = errors.New("backup not found")
)

// Runner executes database dumps and restores.
type Runner struct {
	cfg *config.Config
}

// NewRunner creates a backup runner for the given configuration.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg}
}

// Info describes one backup file on disk.
type Info struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Run dumps the database into a timestamped file in the backup
// directory and returns its name.
func (r *Runner) Run(ctx context.Context) (string, error) {
	if !r.cfg.Backup.Enabled {
		return "", ErrBackupDisabled
	}

	if err := os.MkdirAll(r.cfg.Backup.Dir, 0o750); err != nil {
		return "", errors.Wrap(err, "creating backup directory")
	}

	name := fmt.Sprintf("%s-%s.sql", r.cfg.DB.Name, time.Now().Format("20060102-150405"))
	path := filepath.Join(r.cfg.Backup.Dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating dump file")
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, r.cfg.Backup.MysqldumpPath,
		"--host", r.cfg.DB.Host,
		"--port", strconv.Itoa(r.cfg.DB.Port),
		"--user", r.cfg.DB.User,
		"--single-transaction",
		r.cfg.DB.Name,
	)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+r.cfg.DB.Password)
	cmd.Stdout = out

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(path)

		return "", errors.Wrapf(err, "mysqldump failed: %s", stderr.String())
	}

	log.Info().Str("file", name).Msg("database backup written")

	return name, nil
}

// Restore feeds a backup file from the backup directory into the mysql
// client. The name must not leave the backup directory.
func (r *Runner) Restore(ctx context.Context, name string) error {
	if !r.cfg.Backup.Enabled {
		return ErrBackupDisabled
	}

	if name != filepath.Base(name) {
		return ErrBackupNotFound
	}

	path := filepath.Join(r.cfg.Backup.Dir, name)

	in, err := os.Open(path)
	if err != nil {
		return ErrBackupNotFound
	}
	defer in.Close()

	cmd := exec.CommandContext(ctx, r.cfg.Backup.MysqlPath,
		"--host", r.cfg.DB.Host,
		"--port", strconv.Itoa(r.cfg.DB.Port),
		"--user", r.cfg.DB.User,
		r.cfg.DB.Name,
	)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+r.cfg.DB.Password)
	cmd.Stdin = in

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "mysql restore failed: %s", stderr.String())
	}

	log.Info().Str("file", name).Msg("database backup restored")

	return nil
}

// List returns the backup files in the backup directory, newest first.
func (r *Runner) List() ([]Info, error) {
	entries, err := os.ReadDir(r.cfg.Backup.Dir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading backup directory")
	}

	infos := make([]Info, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			continue
		}

		infos = append(infos, Info{
			Name:      entry.Name(),
			Size:      fi.Size(),
			CreatedAt: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})

	return infos, nil
}

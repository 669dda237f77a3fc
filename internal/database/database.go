package database

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xelth-com/eckposgo/internal/config"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/models"
)

const (
	embeddedDataPath = "./db_data"
	embeddedPort     = 5433
)

// DB wraps gorm.DB and includes a reference to an embedded process if active
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
	log      *logger.Logger
}

// cleanupStaleEmbeddedPostgres stops a postmaster left behind by a crashed run
func cleanupStaleEmbeddedPostgres(log *logger.Logger) {
	pidFile := filepath.Join(embeddedDataPath, "postmaster.pid")

	data, err := os.ReadFile(pidFile)
	if err != nil {
		return
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	if !scanner.Scan() {
		return
	}
	pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		log.Warn("could not parse postmaster.pid", "error", err)
		return
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		log.Info("removing stale postmaster.pid", "pid", pid)
		os.Remove(pidFile)
		return
	}

	// On Unix FindProcess always succeeds; signal 0 probes liveness
	if err := process.Signal(syscall.Signal(0)); err != nil {
		log.Info("removing stale postmaster.pid", "pid", pid)
		os.Remove(pidFile)
		return
	}

	log.Warn("stopping orphaned postgres process", "pid", pid)
	if err := process.Signal(syscall.SIGTERM); err != nil {
		log.Warn("SIGTERM failed", "pid", pid, "error", err)
	}

	for i := 0; i < 10; i++ {
		time.Sleep(500 * time.Millisecond)
		if err := process.Signal(syscall.Signal(0)); err != nil {
			log.Info("orphaned postgres process stopped", "pid", pid)
			os.Remove(pidFile)
			return
		}
	}

	log.Warn("postgres did not stop gracefully, killing", "pid", pid)
	process.Kill()
	time.Sleep(500 * time.Millisecond)
	os.Remove(pidFile)
}

func isPortInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Connect establishes a connection to PostgreSQL. A localhost target without
// a password starts an embedded instance under ./db_data instead.
func Connect(cfg config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	var embedded *embeddedpostgres.EmbeddedPostgres
	password := cfg.Password

	if cfg.Host == "localhost" && cfg.Password == "" {
		log.Info("starting embedded postgres", "data", embeddedDataPath, "port", embeddedPort)
		cleanupStaleEmbeddedPostgres(log)

		if isPortInUse(embeddedPort) {
			log.Warn("embedded port still in use, waiting", "port", embeddedPort)
			for i := 0; i < 6; i++ {
				time.Sleep(500 * time.Millisecond)
				if !isPortInUse(embeddedPort) {
					break
				}
			}
			if isPortInUse(embeddedPort) {
				return nil, fmt.Errorf("port %d is still in use by another process", embeddedPort)
			}
		}

		embedded = embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
			DataPath(embeddedDataPath).
			Port(uint32(embeddedPort)).
			Database(cfg.Database).
			Username(cfg.Username).
			Password("postgres"))

		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("failed to start embedded database: %w", err)
		}

		cfg.Port = strconv.Itoa(embeddedPort)
		password = "postgres"
	} else {
		log.Info("connecting to external postgres", "host", cfg.Host, "port", cfg.Port)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, password, cfg.Database,
	)

	db, err := Open(postgres.Open(dsn), gormlogger.Warn)
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("database connection established")
	return &DB{DB: db, embedded: embedded, log: log}, nil
}

// Open wraps gorm.Open with the settings every connection shares; tests use
// it directly with the sqlite dialector.
func Open(dialector gorm.Dialector, level gormlogger.LogLevel) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// Close ensures the database connection and embedded process are shut down
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if db.embedded != nil {
		db.log.Info("stopping embedded postgres")
		if stopErr := db.embedded.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	return err
}

// Migrate synchronizes the schema of every persisted model
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

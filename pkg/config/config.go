package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	Log     LogConfig
	Storage StorageConfig
	Admin   AdminConfig
	Auth    AuthConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig locates the workbooks and the directories derived files go to.
type StorageConfig struct {
	DataDir         string
	StudentsFile    string
	CredentialsFile string
	BackupDir       string
	ExportDir       string
	BackupRetention time.Duration
}

// AdminConfig holds the built-in administrator account.
type AdminConfig struct {
	Username string
	Password string
	Name     string
}

// AuthConfig selects how stored passwords are compared.
type AuthConfig struct {
	PasswordHashing bool
}

// StudentsPath returns the main workbook location.
func (c StorageConfig) StudentsPath() string {
	return resolve(c.DataDir, c.StudentsFile)
}

// CredentialsPath returns the credentials workbook location.
func (c StorageConfig) CredentialsPath() string {
	return resolve(c.DataDir, c.CredentialsFile)
}

// BackupPath returns the backup directory.
func (c StorageConfig) BackupPath() string {
	return resolve(c.DataDir, c.BackupDir)
}

// ExportPath returns the export directory.
func (c StorageConfig) ExportPath() string {
	return resolve(c.DataDir, c.ExportDir)
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Storage = StorageConfig{
		DataDir:         v.GetString("DATA_DIR"),
		StudentsFile:    v.GetString("STUDENTS_FILE"),
		CredentialsFile: v.GetString("CREDENTIALS_FILE"),
		BackupDir:       v.GetString("BACKUP_DIR"),
		ExportDir:       v.GetString("EXPORT_DIR"),
		BackupRetention: parseDuration(v.GetString("BACKUP_RETENTION"), 0),
	}

	cfg.Admin = AdminConfig{
		Username: v.GetString("ADMIN_USERNAME"),
		Password: v.GetString("ADMIN_PASSWORD"),
		Name:     v.GetString("ADMIN_NAME"),
	}

	cfg.Auth = AuthConfig{
		PasswordHashing: v.GetBool("PASSWORD_HASHING"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("STUDENTS_FILE", "students.xlsx")
	v.SetDefault("CREDENTIALS_FILE", "persons.xlsx")
	v.SetDefault("BACKUP_DIR", "backups")
	v.SetDefault("EXPORT_DIR", "exports")
	v.SetDefault("BACKUP_RETENTION", "")

	v.SetDefault("ADMIN_USERNAME", "scoremepro")
	v.SetDefault("ADMIN_PASSWORD", "prome123")
	v.SetDefault("ADMIN_NAME", "Administrator")

	v.SetDefault("PASSWORD_HASHING", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func resolve(dir, name string) string {
	if name == "" || filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

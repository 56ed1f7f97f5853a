package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/noah-isme/scoreme/internal/handler"
	"github.com/noah-isme/scoreme/internal/repository"
	"github.com/noah-isme/scoreme/internal/service"
	"github.com/noah-isme/scoreme/pkg/config"
	appErrors "github.com/noah-isme/scoreme/pkg/errors"
	"github.com/noah-isme/scoreme/pkg/logger"
	"github.com/noah-isme/scoreme/pkg/storage"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("scoreme", pflag.ContinueOnError)
	createSample := flags.Bool("create-sample-data", false, "write the sample dataset to both data files and exit")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return 1
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		hasher   service.PasswordHasher
		verifier service.CredentialVerifier = service.PlainTextVerifier{}
	)
	if cfg.Auth.PasswordHashing {
		bcryptVerifier := service.BcryptVerifier{}
		hasher, verifier = bcryptVerifier, bcryptVerifier
	}

	validate := validator.New()
	studentRepo := repository.NewStudentRepository(cfg.Storage.StudentsPath())
	credentialRepo := repository.NewCredentialRepository(cfg.Storage.CredentialsPath())
	records := service.NewRecordService(studentRepo, credentialRepo, hasher, validate, logr)

	if *createSample {
		if err := records.ResetToSample(ctx); err != nil {
			logr.Error("failed to create sample data", zap.Error(err))
			fmt.Fprintf(os.Stderr, "failed to create sample data: %v\n", err)
			return 1
		}
		fmt.Printf("Sample data written to %s and %s\n", studentRepo.Path(), credentialRepo.Path())
		return 0
	}

	if err := records.Load(ctx); err != nil {
		if !appErrors.IsCode(err, appErrors.ErrPersistence.Code) {
			fmt.Fprintf(os.Stderr, "failed to load records: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	exportStore, err := storage.NewLocalStorage(cfg.Storage.ExportPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare export directory: %v\n", err)
		return 1
	}
	backupStore, err := storage.NewLocalStorage(cfg.Storage.BackupPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare backup directory: %v\n", err)
		return 1
	}
	exports := service.NewExportService(exportStore, backupStore, service.ExportConfig{
		StudentsFile:    cfg.Storage.StudentsFile,
		CredentialsFile: cfg.Storage.CredentialsFile,
		BackupRetention: cfg.Storage.BackupRetention,
	}, logr, nil, nil)

	auth := service.NewAuthService(records, exports, service.AdminAccount{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
		Name:     cfg.Admin.Name,
	}, verifier, validate, logr)

	console := handler.NewConsole(os.Stdin, os.Stdout, handler.NewTerminalPasswordReader())
	app := handler.NewApp(console, auth, nil, cfg.Storage.StudentsPath(), logr)

	logr.Debug("console starting", zap.String("env", cfg.Env), zap.String("data_dir", cfg.Storage.DataDir))
	if err := app.Run(ctx); err != nil {
		logr.Error("console stopped", zap.Error(err))
		fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		return 1
	}
	return 0
}

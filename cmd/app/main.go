package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cutekitek/rankode-grader/internal/analyzer"
	"github.com/cutekitek/rankode-grader/internal/config"
	"github.com/cutekitek/rankode-grader/internal/files"
	"github.com/cutekitek/rankode-grader/internal/grader"
	"github.com/cutekitek/rankode-grader/internal/loader"
	"github.com/cutekitek/rankode-grader/internal/rabbitmq"
	"github.com/cutekitek/rankode-grader/internal/runner/process"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// errExecutionFailed makes the process exit with 1 after the report has
// already been printed.
var errExecutionFailed = errors.New("execution failed")

func setLogLevel(level string) {
	switch level {
	case "debug":
		slog.SetLogLoggerLevel(slog.LevelDebug)
	case "info":
		slog.SetLogLoggerLevel(slog.LevelInfo)
	case "warn":
		slog.SetLogLoggerLevel(slog.LevelWarn)
	case "error":
		slog.SetLogLoggerLevel(slog.LevelError)
	default:
		slog.SetLogLoggerLevel(slog.LevelWarn)
	}
}

type app struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "grader",
		Short:         "Run Python submissions and grade their output and code",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig(a.configPath)
			if err != nil {
				return err
			}
			setLogLevel(cfg.LogLevel)
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "config file, environment variables are used when it does not exist")
	root.AddCommand(a.gradeCmd(), a.workerCmd(), a.enqueueCmd())
	return root
}

func (a *app) newRunner() (*process.ProcessRunner, error) {
	return process.NewProcessRunner(process.ProcessRunnerConfig{
		Interpreter:   a.cfg.Interpreter,
		LanguageFile:  a.cfg.LanguageFile,
		MaxOutputSize: a.cfg.MaxOutputSize,
		KillDelay:     a.cfg.KillDelay,
	})
}

func (a *app) newGrader(ctx context.Context) (*grader.Grader, error) {
	runner, err := a.newRunner()
	if err != nil {
		return nil, err
	}
	if version, err := runner.Version(ctx); err != nil {
		slog.Warn("failed to query interpreter version", "error", err)
	} else {
		slog.Info("using interpreter", "version", version)
	}
	an, err := analyzer.NewAnalyzer(analyzer.Config{
		LongLineWords:    a.cfg.LongLineWords,
		BannedConstructs: a.cfg.BannedConstructs,
	})
	if err != nil {
		return nil, err
	}
	return grader.NewGrader(runner, an), nil
}

// fileStorage returns nil when MinIO credentials are not configured.
func (a *app) fileStorage() (*files.FileStorage, error) {
	if !a.cfg.MinIOEnabled() {
		return nil, nil
	}
	return files.NewFileStorage(files.Config{
		Url:      a.cfg.MinIOHost,
		Login:    a.cfg.MinIOLogin,
		Password: a.cfg.MinIOPassword,
		Bucket:   a.cfg.MinIOBucket,
		Secure:   a.cfg.MinIOSecure,
	})
}

func newLoader(storage *files.FileStorage) *loader.Loader {
	if storage == nil {
		return loader.NewLoader(nil)
	}
	return loader.NewLoader(storage)
}

func (a *app) rabbitConfig() rabbitmq.RabbitMqHandlerConfig {
	return rabbitmq.RabbitMqHandlerConfig{
		Login:          a.cfg.RabbitMQUser,
		Password:       a.cfg.RabbitMQPassword,
		Host:           a.cfg.RabbitMQHost,
		Port:           a.cfg.RabbitMQPort,
		WorkersCount:   a.cfg.WorkersCount,
		DefaultTimeout: a.cfg.Timeout,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errExecutionFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

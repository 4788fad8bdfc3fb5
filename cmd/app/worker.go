package main

import (
	"log/slog"

	"github.com/cutekitek/rankode-grader/internal/rabbitmq"
	"github.com/spf13/cobra"
)

func (a *app) workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Grade tasks from the rabbitmq queue until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.newGrader(cmd.Context())
			if err != nil {
				return err
			}
			storage, err := a.fileStorage()
			if err != nil {
				return err
			}
			listener, err := rabbitmq.NewRabbitMQHandler(a.rabbitConfig(), g, newLoader(storage))
			if err != nil {
				return err
			}
			if err := listener.Start(); err != nil {
				return err
			}
			slog.Info("app started", "workers", a.cfg.WorkersCount)

			<-cmd.Context().Done()
			slog.Info("shutting down")
			return listener.Close()
		},
	}
}

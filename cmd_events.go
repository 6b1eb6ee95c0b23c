package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderdesk/internal/models"
	"orderdesk/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect order lifecycle events",
	}
	cmd.AddCommand(c.eventsTailCmd())
	return cmd
}

// orderdesk events tail: follows the RabbitMQ order events queue until
// interrupted.
func (c *cli) eventsTailCmd() *cobra.Command {
	var queue string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print order events from RabbitMQ as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := c.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: queue}, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := client.Close(); err != nil {
					log.Warn("failed to close rabbitmq client", zap.Error(err))
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			return client.ConsumeOrderEvents(ctx, func(event models.OrderEvent) error {
				return printEvent(out, event)
			})
		},
	}
	cmd.Flags().StringVar(&queue, "queue", rabbitmq.DefaultQueue, "queue to consume")
	return cmd
}

func printEvent(w io.Writer, e models.OrderEvent) error {
	_, err := fmt.Fprintf(w, "%s  %-22s order=%d customer=%q status=%s total=%.2f\n",
		e.OccurredAt.Format(time.RFC3339), e.Type, e.OrderID, e.CustomerName, e.Status, e.Total)
	return err
}

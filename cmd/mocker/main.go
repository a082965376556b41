package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/payment-aggregator/internal/config"
	"github.com/example/payment-aggregator/internal/domain"
	"github.com/example/payment-aggregator/internal/mock"
	"github.com/example/payment-aggregator/internal/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := rootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "mocker",
		Short:        "Send signed mock webhooks to the payment aggregator",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("url", cfg.Mock.APIURL, "Aggregator base URL")

	root.AddCommand(runCmd(cfg))
	root.AddCommand(sendCmd(cfg))
	return root
}

func runCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send a webhook from a random processor at a fixed interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			interval, _ := cmd.Flags().GetDuration("interval")
			count, _ := cmd.Flags().GetInt("count")
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			gen := mock.NewGenerator(registry.New(cfg.Secrets), nil)
			sender := mock.NewSender(url)
			log.Printf("mocker: sending to %s every %s", url, interval)

			t := time.NewTicker(interval)
			defer t.Stop()
			for sent := 0; count == 0 || sent < count; sent++ {
				wh, err := gen.Random()
				if err != nil {
					return err
				}
				send(ctx, sender, wh)
				select {
				case <-ctx.Done():
					log.Printf("mocker: stopped after %d webhooks", sent+1)
					return nil
				case <-t.C:
				}
			}
			return nil
		},
	}
	cmd.Flags().Duration("interval", cfg.Mock.Interval, "Delay between webhooks")
	cmd.Flags().Int("count", 0, "Stop after this many webhooks (0 = until interrupted)")
	return cmd
}

func sendCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "send [processor]",
		Short:     "Send webhooks for one processor",
		Args:      cobra.ExactArgs(1),
		ValidArgs: processorNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			count, _ := cmd.Flags().GetInt("count")
			gen := mock.NewGenerator(registry.New(cfg.Secrets), nil)
			sender := mock.NewSender(url)
			for i := 0; i < count; i++ {
				wh, err := gen.For(domain.ProcessorID(args[0]))
				if err != nil {
					return err
				}
				if !send(cmd.Context(), sender, wh) {
					return fmt.Errorf("send %s webhook failed", wh.Processor)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntP("count", "n", 1, "Number of webhooks to send")
	return cmd
}

func send(ctx context.Context, sender *mock.Sender, wh mock.Webhook) bool {
	if _, err := sender.Send(ctx, wh); err != nil {
		log.Printf("mocker: %s %s: %v", wh.Processor, wh.Label, err)
		return false
	}
	log.Printf("mocker: sent %s webhook: %s", wh.Processor, wh.Label)
	return true
}

func processorNames() []string {
	out := make([]string, 0, len(domain.Processors))
	for _, p := range domain.Processors {
		out = append(out, string(p))
	}
	return out
}

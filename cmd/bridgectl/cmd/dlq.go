package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridpoint-systems/sensor-bridge/internal/dlq"
	"github.com/gridpoint-systems/sensor-bridge/internal/messaging"
)

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Dead letter queue commands",
	Long:  "Inspect and drain payloads the bridge could not process",
}

var dlqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dead-lettered payloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		queue, closeQueue, err := openQueue(cmd)
		if err != nil {
			return err
		}
		defer closeQueue()

		entries, err := queue.List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("failed to list DLQ entries: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return json.NewEncoder(os.Stdout).Encode(entries)
		}

		fmt.Printf("DLQ entries (%d shown):\n\n", len(entries))
		for _, e := range entries {
			fmt.Printf("%s  tenant=%s  reason=%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.TenantID, e.Reason)
			fmt.Printf("  error:   %s\n", e.Error)
			fmt.Printf("  payload: %s\n\n", e.Payload)
		}
		return nil
	},
}

var dlqPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all dead-lettered payloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		queue, closeQueue, err := openQueue(cmd)
		if err != nil {
			return err
		}
		defer closeQueue()

		if err := queue.Purge(cmd.Context()); err != nil {
			return fmt.Errorf("failed to purge DLQ: %w", err)
		}
		fmt.Println("DLQ purged")
		return nil
	},
}

func openQueue(cmd *cobra.Command) (*dlq.JetStreamQueue, func(), error) {
	if !cfg.DLQ.Enabled {
		return nil, nil, fmt.Errorf("the DLQ is disabled in configuration")
	}
	client, err := messaging.NewJetStreamClient(messaging.DefaultConfig(cfg.DLQ.NatsURL))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	queue, err := dlq.NewJetStreamQueue(cmd.Context(), client)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to open DLQ stream: %w", err)
	}
	return queue, client.Close, nil
}

func init() {
	dlqListCmd.Flags().Int("limit", 20, "maximum entries to fetch")

	dlqCmd.AddCommand(dlqListCmd)
	dlqCmd.AddCommand(dlqPurgeCmd)
	rootCmd.AddCommand(dlqCmd)
}

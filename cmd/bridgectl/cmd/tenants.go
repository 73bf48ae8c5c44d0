package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridpoint-systems/sensor-bridge/internal/tenant"
)

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "Tenant management commands",
	Long:  "Manage the tenants the bridge processes webhook traffic for",
}

var tenantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tenants",
	Long:  "Display every tenant known to the bridge, enabled or not",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		tenants, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list tenants: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return json.NewEncoder(os.Stdout).Encode(tenants)
		}

		fmt.Printf("Tenants (%d total):\n\n", len(tenants))
		fmt.Printf("%-24s %-30s %-10s %-20s\n", "ID", "NAME", "STATUS", "CREATED")
		fmt.Println("--------------------------------------------------------------------------------------")
		for _, t := range tenants {
			status := "enabled"
			if !t.Enabled {
				status = "disabled"
			}
			fmt.Printf("%-24s %-30s %-10s %-20s\n",
				t.ID, t.Name, status, t.CreatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

var tenantsAddCmd = &cobra.Command{
	Use:   "add [tenant-id]",
	Short: "Register a tenant",
	Long:  "Register a tenant so the bridge starts processing webhook traffic for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = args[0]
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		t := tenant.Tenant{
			ID:        args[0],
			Name:      name,
			Enabled:   true,
			CreatedAt: time.Now().UTC(),
		}
		if err := store.Add(cmd.Context(), t); err != nil {
			return fmt.Errorf("failed to add tenant: %w", err)
		}

		fmt.Printf("Tenant %s added\n", t.ID)
		return nil
	},
}

var tenantsEnableCmd = &cobra.Command{
	Use:   "enable [tenant-id]",
	Short: "Enable a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTenantEnabled(cmd, args[0], true)
	},
}

var tenantsDisableCmd = &cobra.Command{
	Use:   "disable [tenant-id]",
	Short: "Disable a tenant",
	Long:  "Stop processing webhook traffic for a tenant without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTenantEnabled(cmd, args[0], false)
	},
}

func setTenantEnabled(cmd *cobra.Command, id string, enabled bool) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SetEnabled(cmd.Context(), id, enabled); err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Printf("Tenant %s %s\n", id, state)
	return nil
}

func openStore(cmd *cobra.Command) (*tenant.PostgresStore, error) {
	if cfg.Tenants.Backend != "postgres" {
		return nil, fmt.Errorf("tenant commands need the postgres backend (configured: %s); edit the static tenant file directly instead", cfg.Tenants.Backend)
	}
	store, err := tenant.NewPostgresStore(cmd.Context(), cfg.Tenants.Postgres.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to tenant store: %w", err)
	}
	return store, nil
}

func init() {
	tenantsAddCmd.Flags().String("name", "", "display name (default: the tenant id)")

	tenantsCmd.AddCommand(tenantsListCmd)
	tenantsCmd.AddCommand(tenantsAddCmd)
	tenantsCmd.AddCommand(tenantsEnableCmd)
	tenantsCmd.AddCommand(tenantsDisableCmd)
	rootCmd.AddCommand(tenantsCmd)
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/savorly/marketledger/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "marketledger-cli",
		Short: "MarketLedger CLI tool",
		Long:  `A command line interface for operating the MarketLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the MarketLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(orphanCommand())
	rootCmd.AddCommand(balanceCommand())
	rootCmd.AddCommand(migrateCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func orphanCommand() *cobra.Command {
	orphanCmd := &cobra.Command{
		Use:   "orphan",
		Short: "Orphan frozen balance operations",
	}

	var (
		accountID string
		assetCode string
		limit     int
	)
	detectCmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect orphan frozen balances",
		Run: func(cmd *cobra.Command, args []string) {
			url := fmt.Sprintf("%s/api/v1/admin/orphans?account_id=%s&asset_code=%s&limit=%d",
				baseURL, accountID, assetCode, limit)
			getJSON(url)
		},
	}
	detectCmd.Flags().StringVar(&accountID, "account", "", "Filter by account ID")
	detectCmd.Flags().StringVar(&assetCode, "asset", "", "Filter by asset code")
	detectCmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows to return")

	var (
		dryRun     bool
		operatorID string
	)
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Release orphan frozen balances",
		Run: func(cmd *cobra.Command, args []string) {
			body := map[string]any{
				"dry_run":     dryRun,
				"operator_id": operatorID,
				"account_id":  accountID,
				"asset_code":  assetCode,
				"limit":       limit,
			}
			postJSON(baseURL+"/api/v1/admin/orphans/cleanup", body)
		},
	}
	cleanupCmd.Flags().BoolVar(&dryRun, "dry-run", true, "Report without releasing anything")
	cleanupCmd.Flags().StringVar(&operatorID, "operator", "", "Operator ID (required unless --dry-run)")
	cleanupCmd.Flags().StringVar(&accountID, "account", "", "Filter by account ID")
	cleanupCmd.Flags().StringVar(&assetCode, "asset", "", "Filter by asset code")
	cleanupCmd.Flags().IntVar(&limit, "limit", 0, "Maximum pairs to process")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the current orphan situation",
		Run: func(cmd *cobra.Command, args []string) {
			getJSON(baseURL + "/api/v1/admin/orphans/stats")
		},
	}

	orphanCmd.AddCommand(detectCmd, cleanupCmd, statsCmd)
	return orphanCmd
}

func balanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account-id> [asset-code]",
		Short: "Show an account's balances",
		Args:  cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			url := fmt.Sprintf("%s/api/v1/accounts/%s/balances", baseURL, args[0])
			if len(args) == 2 {
				url += "/" + args[1]
			}
			getJSON(url)
		},
	}
}

func migrateCommand() *cobra.Command {
	var (
		databaseURL    string
		migrationsPath string
	)
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postgres.RunMigrations(databaseURL, migrationsPath)
		},
	}
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postgres.RunMigrationsDown(databaseURL, migrationsPath)
		},
	}
	for _, c := range []*cobra.Command{upCmd, downCmd} {
		c.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
		c.Flags().StringVar(&migrationsPath, "path", "migrations", "Path to migration files")
	}
	migrateCmd.AddCommand(upCmd, downCmd)
	return migrateCmd
}

func getJSON(url string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	printResponse(resp)
}

func postJSON(url string, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		fmt.Printf("Error encoding request: %v\n", err)
		os.Exit(1)
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	printResponse(resp)
}

func printResponse(resp *http.Response) {
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(raw))
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(pretty.String())
}

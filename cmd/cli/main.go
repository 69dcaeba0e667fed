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

	"github.com/gavelmarket/gavel/internal/infrastructure/config"
	"github.com/gavelmarket/gavel/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gavel-cli",
		Short: "Gavel CLI tool",
		Long:  `A command line interface for operating the Gavel auction settlement API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Gavel API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check global ledger consistency",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency()
		},
	}

	ledgerCmd.AddCommand(consistencyCmd)

	// Wallet commands
	walletCmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet operations",
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile <user-id>",
		Short: "Replay a wallet's ledger and compare with its snapshot",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			reconcileWallet(args[0])
		},
	}

	walletCmd.AddCommand(reconcileCmd)

	// Auction commands
	auctionCmd := &cobra.Command{
		Use:   "auction",
		Short: "Auction operations",
	}

	var force bool
	closeCmd := &cobra.Command{
		Use:   "close <auction-id>",
		Short: "Close an auction whose end time has passed",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			closeAuction(args[0], force)
		},
	}
	closeCmd.Flags().BoolVar(&force, "force", false, "Close before the end time")

	auctionCmd.AddCommand(closeCmd)

	// Migration commands
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	var migrationsPath string
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "Path to migration files")

	migrateUpCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigrations(migrationsPath, false)
		},
	}

	migrateDownCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Run: func(cmd *cobra.Command, args []string) {
			runMigrations(migrationsPath, true)
		},
	}

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)

	rootCmd.AddCommand(ledgerCmd, walletCmd, auctionCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func checkConsistency() {
	body, status := get("/api/v1/ledger/consistency")

	if status != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	fmt.Println("Consistency check PASSED")
}

func reconcileWallet(userID string) {
	body, status := get("/api/v1/wallets/" + userID + "/reconcile")

	if status != http.StatusOK {
		fmt.Printf("Reconciliation FAILED (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	var result struct {
		WalletID        string `json:"wallet_id"`
		RecordedBalance string `json:"recorded_balance"`
		ReplayedBalance string `json:"replayed_balance"`
		RecordedHeld    string `json:"recorded_held"`
		ReplayedHeld    string `json:"replayed_held"`
		EntryCount      int    `json:"entry_count"`
		Reconciled      bool   `json:"reconciled"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wallet:   %s\n", result.WalletID)
	fmt.Printf("Entries:  %d\n", result.EntryCount)
	fmt.Printf("Balance:  recorded=%s replayed=%s\n", result.RecordedBalance, result.ReplayedBalance)
	fmt.Printf("Held:     recorded=%s replayed=%s\n", result.RecordedHeld, result.ReplayedHeld)

	if !result.Reconciled {
		fmt.Println("Wallet does NOT reconcile")
		os.Exit(1)
	}

	fmt.Println("Wallet reconciles")
}

func closeAuction(auctionID string, force bool) {
	payload, _ := json.Marshal(map[string]bool{"force": force})

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+"/api/v1/auctions/"+auctionID+"/close", "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Close FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	fmt.Printf("Auction closed\n%s\n", string(body))
}

func runMigrations(path string, down bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if down {
		err = postgres.RunMigrationsDown(cfg.DatabaseURL, path)
	} else {
		err = postgres.RunMigrations(cfg.DatabaseURL, path)
	}
	if err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migrations complete")
}

func get(path string) ([]byte, int) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	return body, resp.StatusCode
}

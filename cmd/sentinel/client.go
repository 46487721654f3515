package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/FairForge/sentinel/internal/config"
	"github.com/FairForge/sentinel/internal/orchestrator"
	"github.com/spf13/cobra"
)

// defaultAddr resolves the orchestrator address, letting SENTINEL_ADDR
// override the local default.
func defaultAddr() string {
	return config.GetEnvOrDefault("SENTINEL_ADDR", "http://localhost:8080")
}

func newStatusCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cluster status from a running orchestrator",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runStatus(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr(), "orchestrator API address")
	return cmd
}

func runStatus(addr string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(addr + "/api/v1/status")
	if err != nil {
		return fmt.Errorf("query status: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var status orchestrator.StatusSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	primary := status.Primary
	if primary == "" {
		primary = "(none)"
	}

	fmt.Println("============================================================")
	fmt.Printf("CLUSTER STATUS - %s\n", status.Timestamp.Format(time.RFC3339))
	fmt.Println("============================================================")
	fmt.Printf("Primary Node:  %s\n", primary)
	fmt.Printf("Total Nodes:   %d\n", status.TotalNodes)
	fmt.Printf("Healthy Nodes: %d\n", status.HealthyNodes)
	if status.FailoverInProgress {
		fmt.Println("Failover:      IN PROGRESS")
	}
	fmt.Println("\nNode Details:")
	for _, n := range status.Nodes {
		health := "HEALTHY"
		if !n.Healthy {
			health = "DOWN"
		}
		lag := ""
		if n.Role != "primary" {
			lag = fmt.Sprintf("lag: %.2fs", n.ReplicationLagSec)
		}
		fmt.Printf("  %-20s | %-8s | %-8s | %s\n", n.Name, n.Role, health, lag)
	}
	fmt.Println("============================================================")
	return nil
}

func newFailoverCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "failover",
		Short: "Trigger a failover on a running orchestrator",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runFailover(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr(), "orchestrator API address")
	return cmd
}

func runFailover(addr string) error {
	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Post(addr+"/api/v1/failover", "application/json", nil)
	if err != nil {
		return fmt.Errorf("trigger failover: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result struct {
		Outcome    string  `json:"outcome"`
		Reason     string  `json:"reason"`
		OldPrimary string  `json:"old_primary"`
		NewPrimary string  `json:"new_primary"`
		RTOSeconds float64 `json:"rto_seconds"`
		RPOSeconds float64 `json:"rpo_seconds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}

	switch result.Outcome {
	case "completed":
		fmt.Printf("Failover complete: %s is now primary (RTO %.2fs, RPO %.2fs)\n",
			result.NewPrimary, result.RTOSeconds, result.RPOSeconds)
	case "skipped":
		fmt.Println("Failover already in progress, trigger ignored")
	default:
		fmt.Printf("Failover aborted: %s\n", result.Reason)
	}
	return nil
}

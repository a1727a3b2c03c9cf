package main

// Drive the onboarding API from a terminal:
//   go run ./cmd/kycctl onboard --pan pan.jpg --aadhaar aadhaar.pdf
//   go run ./cmd/kycctl status <workflowId>
//   go run ./cmd/kycctl dashboard --status review_required --limit 20

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"kyc-backend/internal/client"
	"kyc-backend/internal/onboarding"
)

const defaultAPIBase = "http://localhost:8080/api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var apiBase string

	rootCmd := &cobra.Command{
		Use:          "kycctl",
		Short:        "Onboard and inspect KYC sessions",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", envOr("API_BASE_URL", defaultAPIBase), "API base URL")

	api := func() *client.Client { return client.New(apiBase) }
	rootCmd.AddCommand(onboardCmd(api), statusCmd(api), dashboardCmd(api))
	return rootCmd
}

func onboardCmd(api func() *client.Client) *cobra.Command {
	var panPath, aadhaarPath string
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Create a session, upload both documents and wait for the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pan, err := client.ReadDocument(panPath)
			if err != nil {
				return fmt.Errorf("read PAN file: %w", err)
			}
			aadhaar, err := client.ReadDocument(aadhaarPath)
			if err != nil {
				return fmt.Errorf("read Aadhaar file: %w", err)
			}

			c := api()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			created, err := c.Create(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "workflow %s created\n", created.WorkflowID)

			if _, err := c.Upload(ctx, created.WorkflowID, pan, aadhaar); err != nil {
				return err
			}
			fmt.Fprintln(out, "documents uploaded, waiting for verification")

			last := onboarding.Status("")
			poller := &client.Poller{
				Fetcher:  c,
				Interval: client.DefaultPollInterval,
				OnUpdate: func(v onboarding.StatusView) {
					if v.Status != last {
						fmt.Fprintf(out, "  step %d: %s\n", v.CurrentStep, v.Status)
						last = v.Status
					}
				},
			}
			view, err := poller.Wait(ctx, created.WorkflowID)
			if err != nil {
				return err
			}
			printResult(out, view)
			return nil
		},
	}
	cmd.Flags().StringVar(&panPath, "pan", "", "PAN card image or PDF")
	cmd.Flags().StringVar(&aadhaarPath, "aadhaar", "", "Aadhaar card image or PDF")
	_ = cmd.MarkFlagRequired("pan")
	_ = cmd.MarkFlagRequired("aadhaar")
	return cmd
}

func statusCmd(api func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "status <workflowId>",
		Short: "Print the status view of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := api().Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

func dashboardCmd(api func() *client.Client) *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print dashboard counters and recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := api()
			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := c.List(cmd.Context(), status, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printStats(out, stats)
			fmt.Fprintln(out)
			printRecords(out, recs)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only sessions with this status")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of recent sessions (server default when 0)")
	return cmd
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

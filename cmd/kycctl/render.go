package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"kyc-backend/internal/client"
	"kyc-backend/internal/onboarding"
)

func printResult(w io.Writer, view onboarding.StatusView) {
	switch client.OutcomeOf(view.Status) {
	case client.OutcomeSuccess:
		fmt.Fprintln(w, "KYC verification successful")
	case client.OutcomeReview:
		fmt.Fprintln(w, "KYC needs manual review")
	default:
		fmt.Fprintln(w, "KYC verification failed")
		if msg := errorMessage(view.ErrorDetails); msg != "" {
			fmt.Fprintf(w, "  reason: %s\n", msg)
		}
	}
	printStatus(w, view)
}

func printStatus(w io.Writer, view onboarding.StatusView) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "workflow\t%s\n", view.WorkflowID)
	fmt.Fprintf(tw, "status\t%s\n", view.Status)
	fmt.Fprintf(tw, "step\t%d\n", view.CurrentStep)
	fmt.Fprintf(tw, "pan upload\t%s\n", view.StepStatuses.PANUpload)
	fmt.Fprintf(tw, "aadhaar upload\t%s\n", view.StepStatuses.AadhaarUpload)
	fmt.Fprintf(tw, "pan ocr\t%s\n", view.StepStatuses.PANOCR)
	fmt.Fprintf(tw, "aadhaar ocr\t%s\n", view.StepStatuses.AadhaarOCR)
	fmt.Fprintf(tw, "pan verification\t%s\n", view.StepStatuses.PANVerification)
	fmt.Fprintf(tw, "sheets storage\t%s\n", view.StepStatuses.SheetsStorage)
	fmt.Fprintf(tw, "notification\t%s\n", view.StepStatuses.TelegramNotification)
	for _, k := range sortedKeys(view.OCRData) {
		fmt.Fprintf(tw, "ocr.%s\t%v\n", k, view.OCRData[k])
	}
	_ = tw.Flush()
}

func printStats(w io.Writer, s onboarding.Stats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "total\t%d\n", s.Total)
	fmt.Fprintf(tw, "verified today\t%d\n", s.VerifiedToday)
	fmt.Fprintf(tw, "pending review\t%d\n", s.PendingReview)
	fmt.Fprintf(tw, "processing\t%d\n", s.Processing)
	_ = tw.Flush()
}

func printRecords(w io.Writer, recs []onboarding.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "no onboardings")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKFLOW\tNAME\tPAN\tSTATUS\tCREATED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.WorkflowID, orDash(r.ClientName), r.PANNumber, r.Status, r.CreatedAt.Local().Format(time.DateTime))
	}
	_ = tw.Flush()
}

func errorMessage(details map[string]any) string {
	if details == nil {
		return ""
	}
	if msg, ok := details["error"].(string); ok {
		return msg
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

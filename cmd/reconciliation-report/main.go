// Command reconciliation-report exports recent runs and scheduled actions to
// an xlsx workbook for operations review.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sigayyury-ai/crmtowfirma-sub012/config"
	"github.com/sigayyury-ai/crmtowfirma-sub012/models"
	"github.com/xuri/excelize/v2"
)

func main() {
	days := flag.Int("days", 30, "How many days of history to export")
	out := flag.String("out", "reconciliation-report.xlsx", "Output file path")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	since := time.Now().AddDate(0, 0, -*days)

	var runs []models.ReconciliationRun
	if err := db.Where("created_at >= ?", since).Order("created_at DESC").Find(&runs).Error; err != nil {
		fmt.Fprintf(os.Stderr, "load runs: %v\n", err)
		os.Exit(1)
	}
	var actions []models.ScheduledAction
	if err := db.Where("created_at >= ?", since).Order("created_at DESC").Find(&actions).Error; err != nil {
		fmt.Fprintf(os.Stderr, "load actions: %v\n", err)
		os.Exit(1)
	}

	f := excelize.NewFile()
	runSheet := "Runs"
	f.SetSheetName("Sheet1", runSheet)

	headers := []string{"RunId", "Job", "Status", "TriggeredBy", "TotalFound", "Performed", "Skipped", "Errors", "DurationMs", "CreatedAt"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(runSheet, cell, h)
	}
	for i, run := range runs {
		row := i + 2
		values := []interface{}{
			run.RunId, run.Job, run.Status, run.TriggeredBy,
			run.TotalFound, run.Performed, run.SkipCount, run.ErrorCount,
			run.DurationMs, run.CreatedAt.Format(time.RFC3339),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(runSheet, cell, v)
		}
	}

	actionSheet := "ScheduledActions"
	if _, err := f.NewSheet(actionSheet); err != nil {
		fmt.Fprintf(os.Stderr, "create sheet: %v\n", err)
		os.Exit(1)
	}
	actionHeaders := []string{"DealId", "DueDate", "ActionType", "SessionId", "Trigger", "RunId", "CreatedAt"}
	for i, h := range actionHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(actionSheet, cell, h)
	}
	for i, action := range actions {
		row := i + 2
		values := []interface{}{
			action.DealId, action.DueDate, string(action.ActionType),
			action.SessionId, action.Trigger, action.RunId,
			action.CreatedAt.Format(time.RFC3339),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(actionSheet, cell, v)
		}
	}

	if err := f.SaveAs(*out); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d runs, %d actions)\n", *out, len(runs), len(actions))
}

// Command run-reconciliation executes one engine entry point directly,
// bypassing Pub/Sub. Used for operator runs and incident recovery.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sigayyury-ai/crmtowfirma-sub012/checkout"
	"github.com/sigayyury-ai/crmtowfirma-sub012/config"
	"github.com/sigayyury-ai/crmtowfirma-sub012/crm"
	"github.com/sigayyury-ai/crmtowfirma-sub012/models"
	"github.com/sigayyury-ai/crmtowfirma-sub012/notify"
	"github.com/sigayyury-ai/crmtowfirma-sub012/paysync"
	"github.com/sigayyury-ai/crmtowfirma-sub012/utils"
)

func main() {
	job := flag.String("job", models.RunJobDeals, "Job to run: deals | reminders | expired")
	dealId := flag.Int("deal-id", 0, "Process a single deal instead of the whole batch (deals job only)")
	timeoutMin := flag.Int("timeout-min", 30, "Run timeout in minutes")
	confirm := flag.String("confirm", "", "Type RUN to proceed (runs create sessions and send messages)")
	flag.Parse()

	switch *job {
	case models.RunJobDeals, models.RunJobReminders, models.RunJobExpired:
	default:
		fmt.Fprintln(os.Stderr, "--job must be deals, reminders or expired")
		os.Exit(1)
	}
	if strings.TrimSpace(*confirm) != "RUN" {
		fmt.Fprintln(os.Stderr, "set --confirm=RUN to proceed")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	models.MigrateTable()

	cfg, err := paysync.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	crmClient, err := crm.NewClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "crm client: %v\n", err)
		os.Exit(1)
	}
	checkoutClient, err := checkout.NewClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "checkout client: %v\n", err)
		os.Exit(1)
	}
	notifyClient, err := notify.NewClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "notify client: %v\n", err)
		os.Exit(1)
	}

	engine := paysync.NewEngine(
		crmClient,
		checkoutClient,
		models.NewPaymentStore(db),
		models.NewActionStore(db),
		notifyClient,
		cfg,
	)

	if *dealId > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeoutMin)*time.Minute)
		defer cancel()
		ctx = utils.SetTriggerInContext(ctx, models.TriggerCli)

		summary := engine.ProcessDeal(ctx, *dealId)
		out, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(out))
		return
	}

	runId := uuid.New().String()
	run := models.ReconciliationRun{
		RunId:       runId,
		Job:         *job,
		Status:      models.RunStatusQueued,
		TriggeredBy: models.TriggerCli,
	}
	if err := db.Create(&run).Error; err != nil {
		fmt.Fprintf(os.Stderr, "create run row: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeoutMin)*time.Minute)
	defer cancel()
	ctx = utils.SetTriggerInContext(ctx, models.TriggerCli)

	if err := paysync.ProcessRun(ctx, engine, paysync.RunPayload{
		RunId:       runId,
		Job:         *job,
		TriggeredBy: models.TriggerCli,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}

	var finished models.ReconciliationRun
	if err := db.Where("run_id = ?", runId).Take(&finished).Error; err == nil {
		out, _ := json.MarshalIndent(finished, "", "  ")
		fmt.Println(string(out))
	}
}

package paysync

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sigayyury-ai/crmtowfirma-sub012/checkout"
	"github.com/sigayyury-ai/crmtowfirma-sub012/config"
	"github.com/sigayyury-ai/crmtowfirma-sub012/crm"
	"github.com/sigayyury-ai/crmtowfirma-sub012/models"
	"github.com/sigayyury-ai/crmtowfirma-sub012/schedule"
	"github.com/sigayyury-ai/crmtowfirma-sub012/utils"
	"github.com/sirupsen/logrus"
)

const moduleName = "paysync"

// Engine drives the three reconciliation entry points. Deals are processed
// sequentially within a run; safety against overlapping runs rests on the
// ActionLog's unique constraint and on re-querying the processor immediately
// before every side effect.
type Engine struct {
	Deals    DealSource
	Sessions SessionAPI
	Payments PaymentStore
	Actions  *ActionLog
	Notify   Notifier
	Scanner  *Scanner
	Cfg      Config
	Clock    func() time.Time

	logger *logrus.Logger
}

func NewEngine(deals DealSource, sessions SessionAPI, payments PaymentStore, actions ActionStore, notify Notifier, cfg Config) *Engine {
	return &Engine{
		Deals:    deals,
		Sessions: sessions,
		Payments: payments,
		Actions:  NewActionLog(actions),
		Notify:   notify,
		Scanner:  NewScanner(sessions, cfg),
		Cfg:      cfg,
		Clock:    time.Now,
		logger:   config.GetLogger(),
	}
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// ProcessAllDeals finds deals with a paid first instalment under the split
// plan whose second instalment is due and has no session yet, and creates one
// checkout session per such deal.
func (e *Engine) ProcessAllDeals(ctx context.Context) *Summary {
	summary := &Summary{}

	deposits, err := e.Payments.ListAll(ctx, models.PaymentFilter{
		Role:   models.PaymentRoleDeposit,
		Status: models.PaymentStatusPaid,
	})
	if err != nil {
		config.LogError(e.logger, moduleName, "ProcessAllDeals", "list paid deposits", nil, err)
		summary.fail(0, "ledger_scan", err)
		return summary
	}

	dealIds := uniqueDealIds(deposits)
	summary.TotalFound = len(dealIds)

	for _, dealId := range dealIds {
		if err := e.createSecondSession(ctx, dealId, summary); err != nil {
			config.LogError(e.logger, moduleName, "ProcessAllDeals", "deal "+strconv.Itoa(dealId), nil, err)
			summary.fail(dealId, "create_session", err)
		}
	}
	return summary
}

// ProcessDeal runs the second-session decision for one deal. Operator tooling
// uses it to retry a single deal without scanning the whole ledger.
func (e *Engine) ProcessDeal(ctx context.Context, dealId int) *Summary {
	summary := &Summary{TotalFound: 1}
	if err := e.createSecondSession(ctx, dealId, summary); err != nil {
		config.LogError(e.logger, moduleName, "ProcessDeal", "deal "+strconv.Itoa(dealId), nil, err)
		summary.fail(dealId, "create_session", err)
	}
	return summary
}

func (e *Engine) createSecondSession(ctx context.Context, dealId int, summary *Summary) error {
	bundle, err := e.Deals.GetDealWithRelatedData(ctx, dealId)
	if err != nil {
		return err
	}
	deal := bundle.Deal
	if deal.Excluded() {
		summary.skip(dealId, SkipDealExcluded)
		return nil
	}

	ledger, err := e.Payments.ListForDeal(ctx, dealId)
	if err != nil {
		return err
	}

	firstPaid := FirstPaidDeposit(ledger)
	if firstPaid == nil {
		summary.skip(dealId, SkipFirstPaymentUnpaid)
		return nil
	}

	// The plan frozen when the deposit was paid decides whether a second
	// instalment is owed; the deal's current close date never overrides it.
	if e.initialPlan(deal, firstPaid) != schedule.PlanSplit {
		summary.skip(dealId, SkipNotSplitPlan)
		return nil
	}

	due := schedule.SecondInstalmentDueDate(deal.ExpectedCloseDate)
	if due == nil {
		summary.skip(dealId, SkipNoDueDate)
		return nil
	}
	if !schedule.IsDueDateReached(*due, e.now()) {
		summary.skip(dealId, SkipDueDateNotReached)
		return nil
	}

	if IsDealFullyPaid(deal, ledger) {
		summary.skip(dealId, SkipDealFullyPaid)
		return nil
	}
	if IsSecondInstalmentPaid(deal, ledger) {
		summary.skip(dealId, SkipSecondPaymentAlreadyPaid)
		return nil
	}

	dueKey := DueDateKey(*due)
	taken, err := e.Actions.WasActionTaken(ctx, dealId, dueKey)
	if err != nil {
		return err
	}
	if taken {
		summary.skip(dealId, SkipAlreadyNotified)
		return nil
	}

	active, err := e.hasActiveSecondSession(ctx, ledger)
	if err != nil {
		return err
	}
	if active {
		summary.skip(dealId, SkipActiveSessionExists)
		return nil
	}

	result, err := e.Sessions.CreateSession(ctx, deal, checkout.SessionContext{
		Role:            models.PaymentRoleRest,
		Schedule:        models.ScheduleTagSplit,
		InstalmentIndex: 2,
	})
	if err != nil {
		return err
	}
	summary.Created++

	if err := e.persistSessionPayment(ctx, dealId, result, models.PaymentRoleRest, models.ScheduleTagSplit); err != nil {
		config.LogError(e.logger, moduleName, "createSecondSession", "persist payment for deal "+strconv.Itoa(dealId), result, err)
		summary.fail(dealId, "persist_payment", err)
	}

	if recipient := recipientOf(bundle); recipient != "" {
		msg := paymentLinkMessage(deal, result.URL, result.Amount)
		if err := e.Notify.Send(ctx, recipient, msg); err != nil {
			config.LogError(e.logger, moduleName, "createSecondSession", "notify deal "+strconv.Itoa(dealId), nil, err)
			summary.fail(dealId, "notify", err)
		}
		e.updateRecipientLink(ctx, recipient, result.URL, dueKey)
	} else {
		summary.skip(dealId, SkipNoRecipient)
	}

	return e.recordAction(ctx, dealId, dueKey, models.ActionTypeSessionCreated, result.SessionId)
}

// ProcessAllReminders finds deals owed a second-instalment reminder and sends
// at most one per (deal, due date), across runs.
func (e *Engine) ProcessAllReminders(ctx context.Context) *Summary {
	summary := &Summary{}

	tasks, err := e.FindReminderTasks(ctx)
	if err != nil {
		// The scanner leg failing still leaves the ledger leg usable.
		config.LogError(e.logger, moduleName, "ProcessAllReminders", "expired session scan", nil, err)
		summary.fail(0, "scanner", err)
	}
	summary.TotalFound = len(tasks)

	for _, task := range tasks {
		if err := e.sendReminder(ctx, task, summary); err != nil {
			config.LogError(e.logger, moduleName, "ProcessAllReminders", "deal "+strconv.Itoa(task.DealId), nil, err)
			summary.fail(task.DealId, "send_reminder", err)
		}
	}
	return summary
}

// FindReminderTasks unions deal ids from locally unpaid rest records and from
// the remote expired-session scan. Either source alone can miss deals: the
// ledger lags when a webhook is lost, the scan is bounded by its lookback
// window. A scan failure degrades to the ledger leg and is returned alongside
// the tasks.
func (e *Engine) FindReminderTasks(ctx context.Context) ([]ReminderTask, error) {
	unpaidRest, err := e.Payments.ListAll(ctx, models.PaymentFilter{
		Role:   models.PaymentRoleRest,
		Status: models.PaymentStatusUnpaid,
	})
	if err != nil {
		return nil, err
	}

	expiredByDeal := map[int][]checkout.Session{}
	expired, scanErr := e.Scanner.FindExpiredUnpaidSessions(ctx)
	for _, session := range expired {
		if dealId, ok := session.DealId(); ok {
			expiredByDeal[dealId] = append(expiredByDeal[dealId], session)
		}
	}

	ids := map[int]bool{}
	for _, p := range unpaidRest {
		ids[p.DealId] = true
	}
	for dealId := range expiredByDeal {
		ids[dealId] = true
	}

	tasks := make([]ReminderTask, 0, len(ids))
	for dealId := range ids {
		tasks = append(tasks, ReminderTask{DealId: dealId, ExpiredSessions: expiredByDeal[dealId]})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DealId < tasks[j].DealId })
	return tasks, scanErr
}

func (e *Engine) sendReminder(ctx context.Context, task ReminderTask, summary *Summary) error {
	dealId := task.DealId

	bundle, err := e.Deals.GetDealWithRelatedData(ctx, dealId)
	if err != nil {
		return err
	}
	deal := bundle.Deal
	if deal.Excluded() {
		summary.skip(dealId, SkipDealExcluded)
		return nil
	}

	ledger, err := e.Payments.ListForDeal(ctx, dealId)
	if err != nil {
		return err
	}

	firstPaid := FirstPaidDeposit(ledger)
	if firstPaid == nil {
		summary.skip(dealId, SkipFirstPaymentUnpaid)
		return nil
	}
	if e.initialPlan(deal, firstPaid) != schedule.PlanSplit {
		summary.skip(dealId, SkipNotSplitPlan)
		return nil
	}

	due := schedule.SecondInstalmentDueDate(deal.ExpectedCloseDate)
	if due == nil {
		summary.skip(dealId, SkipNoDueDate)
		return nil
	}
	if !schedule.IsDueDateReached(*due, e.now()) {
		summary.skip(dealId, SkipDueDateNotReached)
		return nil
	}

	if IsDealFullyPaid(deal, ledger) {
		summary.skip(dealId, SkipDealFullyPaid)
		return nil
	}
	if IsSecondInstalmentPaid(deal, ledger) {
		summary.skip(dealId, SkipSecondPaymentAlreadyPaid)
		return nil
	}

	dueKey := DueDateKey(*due)
	taken, err := e.Actions.WasActionTaken(ctx, dealId, dueKey)
	if err != nil {
		return err
	}
	if taken {
		summary.skip(dealId, SkipAlreadyNotified)
		return nil
	}

	// A fresh open session supersedes a reminder about an older expired one.
	recent, err := e.hasRecentOpenSession(ctx, ledger)
	if err != nil {
		return err
	}
	if recent {
		summary.skip(dealId, SkipRecentSessionExists)
		return nil
	}

	link, linkSessionId := e.resolvePaymentLink(ctx, task, ledger)
	if link == "" {
		summary.skip(dealId, SkipNoPaymentLink)
		return nil
	}

	// Re-read both sources right before dispatch. A webhook-driven status
	// update can land between the candidate scan and this point.
	freshLedger, err := e.Payments.ListForDeal(ctx, dealId)
	if err != nil {
		return err
	}
	if IsDealFullyPaid(deal, freshLedger) || IsSecondInstalmentPaid(deal, freshLedger) {
		summary.skip(dealId, SkipSecondPaymentAlreadyPaid)
		return nil
	}
	if linkSessionId != "" && !e.Scanner.IsSyntheticSessionID(linkSessionId) {
		if live, err := e.Sessions.RetrieveSession(ctx, linkSessionId); err == nil && live.PaymentStatus == checkout.PaymentStatusPaid {
			summary.skip(dealId, SkipSecondPaymentAlreadyPaid)
			return nil
		}
	}

	// A deal lost or deleted since the candidate scan short-circuits the
	// send even now.
	fresh, err := e.Deals.GetDeal(ctx, dealId)
	if err != nil {
		return err
	}
	if fresh.Excluded() {
		summary.skip(dealId, SkipDealExcluded)
		return nil
	}

	recipient := recipientOf(bundle)
	if recipient == "" {
		summary.skip(dealId, SkipNoRecipient)
		return nil
	}
	if err := e.Notify.Send(ctx, recipient, reminderMessage(deal, link)); err != nil {
		return err
	}
	summary.Sent++

	return e.recordAction(ctx, dealId, dueKey, models.ActionTypeReminderSent, linkSessionId)
}

// ProcessExpiredSessions recreates the single most recently expired unpaid
// session per (deal, role), unless a newer open session or full payment makes
// it obsolete.
func (e *Engine) ProcessExpiredSessions(ctx context.Context) *Summary {
	summary := &Summary{}

	tasks, err := e.FindExpiredSessionTasks(ctx)
	if err != nil {
		config.LogError(e.logger, moduleName, "ProcessExpiredSessions", "expired session scan", nil, err)
		summary.fail(0, "scanner", err)
		return summary
	}
	summary.TotalFound = len(tasks)

	for _, task := range tasks {
		if err := e.recreateSession(ctx, task, summary); err != nil {
			config.LogError(e.logger, moduleName, "ProcessExpiredSessions", "deal "+strconv.Itoa(task.DealId), nil, err)
			summary.fail(task.DealId, "recreate_session", err)
		}
	}
	return summary
}

// FindExpiredSessionTasks collapses the scanner's expired list to one
// candidate per (deal, normalized role): the most recently expired session.
// Several stale sessions of one role must not each spawn a recreation.
func (e *Engine) FindExpiredSessionTasks(ctx context.Context) ([]RecreationTask, error) {
	expired, err := e.Scanner.FindExpiredUnpaidSessions(ctx)
	if err != nil {
		return nil, err
	}

	type key struct {
		dealId int
		role   models.PaymentRole
	}
	latest := map[key]checkout.Session{}
	for _, session := range expired {
		dealId, ok := session.DealId()
		if !ok {
			continue
		}
		role, ok := session.Role()
		if !ok {
			continue
		}
		k := key{dealId: dealId, role: role}
		if existing, found := latest[k]; !found || session.ExpiresAt.After(existing.ExpiresAt) {
			latest[k] = session
		}
	}

	tasks := make([]RecreationTask, 0, len(latest))
	for k, session := range latest {
		tasks = append(tasks, RecreationTask{DealId: k.dealId, Role: k.role, Session: session})
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].DealId != tasks[j].DealId {
			return tasks[i].DealId < tasks[j].DealId
		}
		return tasks[i].Role < tasks[j].Role
	})
	return tasks, nil
}

func (e *Engine) recreateSession(ctx context.Context, task RecreationTask, summary *Summary) error {
	dealId := task.DealId

	bundle, err := e.Deals.GetDealWithRelatedData(ctx, dealId)
	if err != nil {
		return err
	}
	deal := bundle.Deal
	if deal.Excluded() {
		summary.skip(dealId, SkipDealExcluded)
		return nil
	}

	ledger, err := e.Payments.ListForDeal(ctx, dealId)
	if err != nil {
		return err
	}

	// Payment can arrive through another channel while the session sits
	// expired; a paid deal never gets a new link.
	if IsDealFullyPaid(deal, ledger) {
		summary.skip(dealId, SkipDealFullyPaid)
		return nil
	}
	if task.Role == models.PaymentRoleRest && IsSecondInstalmentPaid(deal, ledger) {
		summary.skip(dealId, SkipSecondPaymentAlreadyPaid)
		return nil
	}

	// The local ledger's status field can be stale; ask the processor
	// directly for an open session newer than the expired candidate.
	open, err := e.findOpenSessionForDeal(ctx, dealId)
	if err != nil {
		return err
	}
	if open != nil && open.CreatedAt.After(task.Session.CreatedAt) {
		summary.skip(dealId, SkipNewerOpenSession)
		return nil
	}

	sc := checkout.SessionContext{
		Role:            task.Role,
		Schedule:        models.ScheduleTagSplit,
		InstalmentIndex: instalmentIndex(task.Role),
	}
	if task.Role == models.PaymentRoleSingle {
		sc.Schedule = models.ScheduleTagSingle
	}

	// When the plan has since shifted to single the split session is not
	// blindly recreated; the replacement collects the outstanding balance in
	// one full-amount session.
	current := schedule.Determine(deal.ExpectedCloseDate, e.now())
	if current.Plan == schedule.PlanSingle && task.Role != models.PaymentRoleSingle {
		outstanding := OutstandingAmount(deal, ledger)
		if outstanding.LessThanOrEqual(decimal.Zero) {
			summary.skip(dealId, SkipDealFullyPaid)
			return nil
		}
		sc = checkout.SessionContext{
			Role:         models.PaymentRoleSingle,
			Schedule:     models.ScheduleTagSingle,
			CustomAmount: &outstanding,
		}
	}

	result, err := e.Sessions.CreateSession(ctx, deal, sc)
	if err != nil {
		return err
	}
	summary.Recreated++

	if err := e.persistSessionPayment(ctx, dealId, result, sc.Role, sc.Schedule); err != nil {
		config.LogError(e.logger, moduleName, "recreateSession", "persist payment for deal "+strconv.Itoa(dealId), result, err)
		summary.fail(dealId, "persist_payment", err)
	}

	// Recreation carries its own notification, tracked by the new session id;
	// no reminder_sent row is written for it.
	if recipient := recipientOf(bundle); recipient != "" {
		outstanding := OutstandingAmount(deal, ledger)
		msg := recreationMessage(deal, result.URL, outstanding)
		if err := e.Notify.Send(ctx, recipient, msg); err != nil {
			config.LogError(e.logger, moduleName, "recreateSession", "notify deal "+strconv.Itoa(dealId), nil, err)
			summary.fail(dealId, "notify", err)
		}
		e.updateRecipientLink(ctx, recipient, result.URL, "")
	} else {
		summary.skip(dealId, SkipNoRecipient)
	}
	return nil
}

// updateRecipientLink mirrors the latest payment link onto the messaging
// channel's recipient profile. Best effort; the link was already delivered in
// the message body.
func (e *Engine) updateRecipientLink(ctx context.Context, recipient, url, dueKey string) {
	fields := map[string]string{"last_payment_url": url}
	if dueKey != "" {
		fields["second_instalment_due"] = dueKey
	}
	if err := e.Notify.UpdateRecipientMetadata(ctx, recipient, fields); err != nil {
		config.LogError(e.logger, moduleName, "updateRecipientLink", "recipient "+recipient, nil, err)
	}
}

// hasActiveSecondSession reports whether a live open second-instalment
// session exists. A locally-open row is never trusted on its own: rows young
// enough to plausibly still be open are re-checked against the processor, and
// only a processor-confirmed open session counts. When the processor lookup
// fails for a fresh row the session is assumed active, which errs on the side
// of not double-charging.
func (e *Engine) hasActiveSecondSession(ctx context.Context, ledger []models.Payment) (bool, error) {
	now := e.now()
	for _, p := range ledger {
		role, ok := roleOf(p)
		if !ok || role != models.PaymentRoleRest {
			continue
		}
		if p.Status != models.PaymentStatusUnpaid || p.SessionStatus != models.SessionStatusOpen {
			continue
		}
		if p.SessionId == "" || e.Scanner.IsSyntheticSessionID(p.SessionId) {
			continue
		}

		live, err := e.Sessions.RetrieveSession(ctx, p.SessionId)
		if err != nil {
			if now.Sub(p.CreatedAt) <= e.Cfg.ActiveSessionWindow {
				return true, nil
			}
			continue
		}
		if live.Status == checkout.SessionStatusOpen {
			return true, nil
		}
	}
	return false, nil
}

// hasRecentOpenSession reports whether a processor-confirmed open session
// created within the recent-session window exists in the ledger.
func (e *Engine) hasRecentOpenSession(ctx context.Context, ledger []models.Payment) (bool, error) {
	now := e.now()
	for _, p := range ledger {
		if p.SessionId == "" || e.Scanner.IsSyntheticSessionID(p.SessionId) {
			continue
		}
		if now.Sub(p.CreatedAt) > e.Cfg.RecentSessionWindow {
			continue
		}
		if p.SessionStatus != models.SessionStatusOpen {
			continue
		}
		live, err := e.Sessions.RetrieveSession(ctx, p.SessionId)
		if err != nil {
			continue
		}
		if live.Status == checkout.SessionStatusOpen {
			return true, nil
		}
	}
	return false, nil
}

// findOpenSessionForDeal queries the processor for the newest open session
// belonging to the deal within the recent-session window.
func (e *Engine) findOpenSessionForDeal(ctx context.Context, dealId int) (*checkout.Session, error) {
	createdAfter := e.now().Add(-e.Cfg.RecentSessionWindow)

	var newest *checkout.Session
	cursor := ""
	for page := 0; page < e.Cfg.ScannerMaxPages; page++ {
		result, err := e.Sessions.ListSessions(ctx, checkout.ListFilter{
			Status:        checkout.SessionStatusOpen,
			CreatedAfter:  createdAfter,
			Limit:         e.Cfg.ScannerPageSize,
			StartingAfter: cursor,
		})
		if err != nil {
			return nil, err
		}
		for i := range result.Sessions {
			session := result.Sessions[i]
			id, ok := session.DealId()
			if !ok || id != dealId {
				continue
			}
			if session.Status != checkout.SessionStatusOpen {
				continue
			}
			if newest == nil || session.CreatedAt.After(newest.CreatedAt) {
				copySession := session
				newest = &copySession
			}
		}
		if !result.HasMore || result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	return newest, nil
}

// resolvePaymentLink picks the link a reminder should carry: the cached URL
// on an unpaid ledger row first, then the expired session's own URL for
// context, then a live processor lookup by session id.
func (e *Engine) resolvePaymentLink(ctx context.Context, task ReminderTask, ledger []models.Payment) (string, string) {
	var newest *models.Payment
	for i := range ledger {
		p := &ledger[i]
		role, ok := roleOf(*p)
		if !ok || role != models.PaymentRoleRest {
			continue
		}
		if p.Status != models.PaymentStatusUnpaid || p.SessionURL == "" {
			continue
		}
		if newest == nil || p.CreatedAt.After(newest.CreatedAt) {
			newest = p
		}
	}
	if newest != nil {
		return newest.SessionURL, newest.SessionId
	}

	var latestExpired *checkout.Session
	for i := range task.ExpiredSessions {
		session := &task.ExpiredSessions[i]
		if session.URL == "" {
			continue
		}
		if latestExpired == nil || session.ExpiresAt.After(latestExpired.ExpiresAt) {
			latestExpired = session
		}
	}
	if latestExpired != nil {
		return latestExpired.URL, latestExpired.ID
	}

	for _, p := range ledger {
		role, ok := roleOf(p)
		if !ok || role != models.PaymentRoleRest || p.SessionId == "" {
			continue
		}
		if e.Scanner.IsSyntheticSessionID(p.SessionId) {
			continue
		}
		live, err := e.Sessions.RetrieveSession(ctx, p.SessionId)
		if err != nil || live.URL == "" {
			continue
		}
		return live.URL, live.ID
	}
	return "", ""
}

// initialPlan recovers the plan frozen when the deposit was paid from the
// payment row's schedule tag. Rows written before tagging existed fall back
// to the current computation.
func (e *Engine) initialPlan(deal crm.Deal, firstPaid *models.Payment) schedule.Plan {
	switch firstPaid.Schedule {
	case models.ScheduleTagSplit:
		return schedule.PlanSplit
	case models.ScheduleTagSingle:
		return schedule.PlanSingle
	default:
		return schedule.Determine(deal.ExpectedCloseDate, e.now()).Plan
	}
}

func (e *Engine) persistSessionPayment(ctx context.Context, dealId int, result *checkout.CreateResult, role models.PaymentRole, tag models.ScheduleTag) error {
	payment := &models.Payment{
		DealId:        dealId,
		Role:          role,
		Amount:        result.Amount,
		Currency:      result.Currency,
		Status:        models.PaymentStatusUnpaid,
		SessionStatus: models.SessionStatusOpen,
		Schedule:      tag,
		SessionId:     result.SessionId,
		SessionURL:    result.URL,
	}
	return e.Payments.Save(ctx, payment)
}

func (e *Engine) recordAction(ctx context.Context, dealId int, dueKey string, actionType models.ActionType, sessionId string) error {
	trigger, _ := utils.GetTriggerFromContext(ctx)
	runId, _ := utils.GetRunIdFromContext(ctx)
	return e.Actions.RecordAction(ctx, &models.ScheduledAction{
		DealId:     dealId,
		DueDate:    dueKey,
		ActionType: actionType,
		SessionId:  sessionId,
		Trigger:    trigger,
		RunId:      runId,
	})
}

func uniqueDealIds(payments []models.Payment) []int {
	seen := map[int]bool{}
	var ids []int
	for _, p := range payments {
		if p.DealId == 0 || seen[p.DealId] {
			continue
		}
		seen[p.DealId] = true
		ids = append(ids, p.DealId)
	}
	sort.Ints(ids)
	return ids
}

func recipientOf(bundle *crm.DealBundle) string {
	if bundle == nil || bundle.Person == nil {
		return ""
	}
	return bundle.Person.MessengerId
}

func instalmentIndex(role models.PaymentRole) int {
	switch role {
	case models.PaymentRoleDeposit:
		return 1
	case models.PaymentRoleRest:
		return 2
	default:
		return 0
	}
}

func paymentLinkMessage(deal crm.Deal, url string, amount decimal.Decimal) string {
	return fmt.Sprintf("The second instalment for %q is due: %s %s. Pay here: %s",
		deal.Title, amount.StringFixed(2), deal.Currency, url)
}

func reminderMessage(deal crm.Deal, url string) string {
	return fmt.Sprintf("Reminder: the second instalment for %q is still unpaid. Pay here: %s",
		deal.Title, url)
}

func recreationMessage(deal crm.Deal, url string, outstanding decimal.Decimal) string {
	return fmt.Sprintf("Your previous payment link for %q expired. Outstanding balance: %s %s. New link: %s",
		deal.Title, outstanding.StringFixed(2), deal.Currency, url)
}

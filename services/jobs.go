package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lumeboard/lumeboard/backend/repository"
)

// JobScheduler runs the recurring maintenance jobs. All jobs are best-effort;
// a failed run logs and waits for the next tick.
type JobScheduler struct {
	cron           *cron.Cron
	repo           *repository.GORMRepository
	billingService *BillingService
	newsService    *NewsService
	mailer         *Mailer
}

func NewJobScheduler(
	repo *repository.GORMRepository,
	billingService *BillingService,
	newsService *NewsService,
	mailer *Mailer,
) *JobScheduler {
	return &JobScheduler{
		cron:           cron.New(),
		repo:           repo,
		billingService: billingService,
		newsService:    newsService,
		mailer:         mailer,
	}
}

// Start registers and launches the cron jobs
func (j *JobScheduler) Start() error {
	if _, err := j.cron.AddFunc("0 0 1 * *", j.monthlyCreditReset); err != nil {
		return err
	}
	if _, err := j.cron.AddFunc("0 8 * * *", j.trialExpirySweep); err != nil {
		return err
	}
	if j.newsService != nil {
		if _, err := j.cron.AddFunc("*/15 * * * *", j.newsRefresh); err != nil {
			return err
		}
	}

	j.cron.Start()
	slog.Info("Job scheduler started")
	return nil
}

// Stop halts the scheduler, waiting for running jobs
func (j *JobScheduler) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	slog.Info("Job scheduler stopped")
}

// monthlyCreditReset refills credits for active subscriptions that are not on
// Stripe's invoice cadence (manually managed plans).
func (j *JobScheduler) monthlyCreditReset() {
	ctx := context.Background()

	subs, err := j.repo.GetActiveSubscriptions(ctx)
	if err != nil {
		slog.Error("Monthly credit reset: failed to list subscriptions", "error", err)
		return
	}

	refilled := 0
	for _, sub := range subs {
		// Stripe-billed plans refill on invoice.paid instead
		if sub.StripeSubscriptionID != "" {
			continue
		}

		if _, err := j.repo.AppendCreditEntry(ctx, sub.UserID, planCredits(sub.Plan), "monthly_reset", sub.ID); err != nil {
			slog.Error("Monthly credit reset: failed to refill", "error", err, "user_id", sub.UserID)
			continue
		}
		refilled++
	}

	slog.Info("Monthly credit reset complete", "subscriptions", len(subs), "refilled", refilled)
}

// trialExpirySweep emails users whose trial lapses within 3 days and
// downgrades trials that already expired.
func (j *JobScheduler) trialExpirySweep() {
	ctx := context.Background()
	now := time.Now()

	subs, err := j.repo.GetExpiringTrials(ctx, now.AddDate(0, 0, 3))
	if err != nil {
		slog.Error("Trial sweep: failed to list expiring trials", "error", err)
		return
	}

	for _, sub := range subs {
		if sub.TrialEndsAt == nil {
			continue
		}

		if sub.TrialEndsAt.Before(now) {
			sub.Status = "canceled"
			sub.Plan = "free"
			if err := j.repo.UpdateSubscription(ctx, &sub); err != nil {
				slog.Error("Trial sweep: failed to downgrade", "error", err, "user_id", sub.UserID)
			} else {
				slog.Info("Trial expired, subscription downgraded", "user_id", sub.UserID)
			}
			continue
		}

		if j.mailer == nil {
			continue
		}

		user, err := j.repo.GetUserByID(ctx, sub.UserID)
		if err != nil || user == nil {
			slog.Error("Trial sweep: failed to get user", "error", err, "user_id", sub.UserID)
			continue
		}

		daysLeft := int(time.Until(*sub.TrialEndsAt).Hours()/24) + 1
		if err := j.mailer.SendTrialExpiryNotice(user.Email, user.FullName, daysLeft); err != nil {
			slog.Error("Trial sweep: failed to send notice", "error", err, "user_id", sub.UserID)
		}
	}

	slog.Info("Trial expiry sweep complete", "checked", len(subs))
}

func (j *JobScheduler) newsRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := j.newsService.RefreshAll(ctx); err != nil {
		slog.Error("Scheduled news refresh failed", "error", err)
	}
}

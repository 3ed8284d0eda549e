package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v79"
	portalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"

	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
)

const (
	TrialCredits = 50
	ProCredits   = 500
	TeamCredits  = 2000

	TrialDays = 14
)

// planCredits returns the monthly credit allowance for a plan
func planCredits(plan string) int64 {
	switch plan {
	case "pro":
		return ProCredits
	case "team":
		return TeamCredits
	default:
		return TrialCredits
	}
}

type BillingService struct {
	repo          *repository.GORMRepository
	webhookSecret string
	proPriceID    string
	teamPriceID   string
	baseURL       string
}

func NewBillingService(repo *repository.GORMRepository, config *Config) *BillingService {
	stripe.Key = config.Stripe.APIKey
	return &BillingService{
		repo:          repo,
		webhookSecret: config.Stripe.WebhookSecret,
		proPriceID:    config.Stripe.ProPriceID,
		teamPriceID:   config.Stripe.TeamPriceID,
		baseURL:       config.Server.BaseURL,
	}
}

// ProvisionNewUser creates the trialing subscription and starter credit grant
// for a fresh account. Safe to call once per user; an existing subscription is
// left untouched.
func (s *BillingService) ProvisionNewUser(ctx context.Context, userID string) error {
	existing, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check subscription: %w", err)
	}
	if existing != nil {
		return nil
	}

	trialEnd := time.Now().AddDate(0, 0, TrialDays)
	sub := &models.Subscription{
		UserID:      userID,
		Plan:        "free",
		Status:      "trialing",
		TrialEndsAt: &trialEnd,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if _, err := s.repo.AppendCreditEntry(ctx, userID, TrialCredits, "trial_grant", sub.ID); err != nil {
		return fmt.Errorf("failed to grant trial credits: %w", err)
	}

	slog.Info("New user provisioned", "user_id", userID, "trial_ends_at", trialEnd)
	return nil
}

// priceForPlan maps a plan name to its Stripe price ID
func (s *BillingService) priceForPlan(plan string) (string, error) {
	switch plan {
	case "pro":
		return s.proPriceID, nil
	case "team":
		return s.teamPriceID, nil
	default:
		return "", fmt.Errorf("unknown plan: %s", plan)
	}
}

// CreateCheckoutSession creates a Stripe Checkout session for a plan upgrade
func (s *BillingService) CreateCheckoutSession(ctx context.Context, user *models.User, plan string) (string, error) {
	priceID, err := s.priceForPlan(plan)
	if err != nil {
		return "", err
	}

	sub, err := s.repo.GetSubscription(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		if err := s.ProvisionNewUser(ctx, user.ID); err != nil {
			return "", err
		}
		sub, err = s.repo.GetSubscription(ctx, user.ID)
		if err != nil || sub == nil {
			return "", fmt.Errorf("failed to load subscription: %w", err)
		}
	}

	if sub.StripeCustomerID == "" {
		cust, err := customer.New(&stripe.CustomerParams{
			Email: stripe.String(user.Email),
			Name:  stripe.String(user.FullName),
			Metadata: map[string]string{
				"user_id": user.ID,
			},
		})
		if err != nil {
			return "", fmt.Errorf("failed to create stripe customer: %w", err)
		}
		sub.StripeCustomerID = cust.ID
		if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
			return "", fmt.Errorf("failed to save stripe customer: %w", err)
		}
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(sub.StripeCustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.baseURL + "/billing?status=success"),
		CancelURL:  stripe.String(s.baseURL + "/billing?status=canceled"),
		Metadata: map[string]string{
			"user_id": user.ID,
			"plan":    plan,
		},
	}

	checkoutSession, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	slog.Info("Checkout session created", "user_id", user.ID, "plan", plan, "session_id", checkoutSession.ID)
	return checkoutSession.URL, nil
}

// CreatePortalSession creates a Stripe Billing Portal session
func (s *BillingService) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil || sub.StripeCustomerID == "" {
		return "", fmt.Errorf("no billing account for user")
	}

	portal, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(sub.StripeCustomerID),
		ReturnURL: stripe.String(s.baseURL + "/billing"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}

	return portal.URL, nil
}

// HandleCheckoutCompleted activates the subscription after a paid checkout
func (s *BillingService) HandleCheckoutCompleted(ctx context.Context, checkoutSession *stripe.CheckoutSession) error {
	userID := checkoutSession.Metadata["user_id"]
	plan := checkoutSession.Metadata["plan"]
	if userID == "" || plan == "" {
		return fmt.Errorf("checkout session missing metadata")
	}

	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return fmt.Errorf("no subscription for user %s", userID)
	}

	sub.Plan = plan
	sub.Status = "active"
	sub.TrialEndsAt = nil
	if checkoutSession.Subscription != nil {
		sub.StripeSubscriptionID = checkoutSession.Subscription.ID
	}
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}

	if _, err := s.repo.AppendCreditEntry(ctx, userID, planCredits(plan), "plan_grant", sub.StripeSubscriptionID); err != nil {
		return fmt.Errorf("failed to grant plan credits: %w", err)
	}

	slog.Info("Checkout completed", "user_id", userID, "plan", plan)
	return nil
}

// HandleSubscriptionUpdated syncs status and period from Stripe
func (s *BillingService) HandleSubscriptionUpdated(ctx context.Context, stripeSub *stripe.Subscription) error {
	if stripeSub.Customer == nil {
		return fmt.Errorf("subscription event missing customer")
	}

	sub, err := s.repo.GetSubscriptionByStripeCustomer(ctx, stripeSub.Customer.ID)
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		slog.Warn("Subscription event for unknown customer", "customer_id", stripeSub.Customer.ID)
		return nil
	}

	switch stripeSub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		sub.Status = "active"
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		sub.Status = "past_due"
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		sub.Status = "canceled"
		sub.Plan = "free"
	}
	if stripeSub.CurrentPeriodEnd > 0 {
		periodEnd := time.Unix(stripeSub.CurrentPeriodEnd, 0)
		sub.CurrentPeriodEnd = &periodEnd
	}

	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to sync subscription: %w", err)
	}
	return nil
}

// HandleSubscriptionDeleted downgrades the user back to the free plan
func (s *BillingService) HandleSubscriptionDeleted(ctx context.Context, stripeSub *stripe.Subscription) error {
	if stripeSub.Customer == nil {
		return fmt.Errorf("subscription event missing customer")
	}

	sub, err := s.repo.GetSubscriptionByStripeCustomer(ctx, stripeSub.Customer.ID)
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil
	}

	sub.Plan = "free"
	sub.Status = "canceled"
	sub.StripeSubscriptionID = ""
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to downgrade subscription: %w", err)
	}

	slog.Info("Subscription canceled", "user_id", sub.UserID)
	return nil
}

// HandleInvoicePaid refills the monthly credit allowance
func (s *BillingService) HandleInvoicePaid(ctx context.Context, invoice *stripe.Invoice) error {
	if invoice.Customer == nil {
		return fmt.Errorf("invoice event missing customer")
	}

	// The first invoice of a subscription is covered by checkout.session.completed
	if invoice.BillingReason == stripe.InvoiceBillingReasonSubscriptionCreate {
		return nil
	}

	sub, err := s.repo.GetSubscriptionByStripeCustomer(ctx, invoice.Customer.ID)
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		slog.Warn("Invoice for unknown customer", "customer_id", invoice.Customer.ID)
		return nil
	}

	if _, err := s.repo.AppendCreditEntry(ctx, sub.UserID, planCredits(sub.Plan), "plan_refill", invoice.ID); err != nil {
		return fmt.Errorf("failed to refill credits: %w", err)
	}

	slog.Info("Monthly credits refilled", "user_id", sub.UserID, "plan", sub.Plan)
	return nil
}

// DebitCredits consumes credits for AI usage. Returns
// repository.ErrInsufficientCredits when the balance cannot cover the debit.
func (s *BillingService) DebitCredits(ctx context.Context, userID string, amount int64, reason, reference string) (int64, error) {
	entry, err := s.repo.AppendCreditEntry(ctx, userID, -amount, reason, reference)
	if err != nil {
		return 0, err
	}
	return entry.Balance, nil
}

// RefundCredits returns credits charged for an operation that failed after
// the debit landed.
func (s *BillingService) RefundCredits(ctx context.Context, userID string, amount int64, reason, reference string) (int64, error) {
	entry, err := s.repo.AppendCreditEntry(ctx, userID, amount, reason, reference)
	if err != nil {
		return 0, err
	}
	return entry.Balance, nil
}

// GetBillingSummary returns the subscription, balance and recent ledger entries
func (s *BillingService) GetBillingSummary(ctx context.Context, userID string) (map[string]interface{}, error) {
	sub, err := s.repo.GetSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	balance, err := s.repo.GetCreditBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit balance: %w", err)
	}

	entries, err := s.repo.GetCreditEntries(ctx, userID, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit entries: %w", err)
	}

	return map[string]interface{}{
		"subscription":   sub,
		"credit_balance": balance,
		"credit_entries": entries,
	}, nil
}

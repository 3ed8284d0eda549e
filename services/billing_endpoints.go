package services

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/lumeboard/lumeboard/backend/models"
)

type BillingEndpoints struct {
	billingService *BillingService
}

type CheckoutRequest struct {
	Plan string `json:"plan"`
}

func NewBillingEndpoints(billingService *BillingService) *BillingEndpoints {
	return &BillingEndpoints{
		billingService: billingService,
	}
}

func (e *BillingEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/billing", func(r chi.Router) {
		r.Get("/", e.SummaryHandler)
		r.Post("/checkout", e.CheckoutHandler)
		r.Post("/portal", e.PortalHandler)
	})
}

// RegisterWebhookRoutes registers the Stripe webhook outside the auth middleware
func (e *BillingEndpoints) RegisterWebhookRoutes(r chi.Router) {
	r.Post("/webhooks/stripe", e.WebhookHandler)
}

func (e *BillingEndpoints) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	summary, err := e.billingService.GetBillingSummary(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get billing summary", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get billing summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (e *BillingEndpoints) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Plan != "pro" && req.Plan != "team" {
		http.Error(w, "Invalid plan", http.StatusBadRequest)
		return
	}

	url, err := e.billingService.CreateCheckoutSession(r.Context(), user, req.Plan)
	if err != nil {
		slog.Error("Failed to create checkout session", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create checkout session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": url})
}

func (e *BillingEndpoints) PortalHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	url, err := e.billingService.CreatePortalSession(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to create portal session", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create portal session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": url})
}

func (e *BillingEndpoints) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		http.Error(w, "Failed to read payload", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), e.billingService.webhookSecret)
	if err != nil {
		slog.Error("Webhook signature verification failed", "error", err)
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		var checkoutSession stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &checkoutSession); err != nil {
			http.Error(w, "Invalid event payload", http.StatusBadRequest)
			return
		}
		err = e.billingService.HandleCheckoutCompleted(r.Context(), &checkoutSession)
	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			http.Error(w, "Invalid event payload", http.StatusBadRequest)
			return
		}
		err = e.billingService.HandleSubscriptionUpdated(r.Context(), &sub)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			http.Error(w, "Invalid event payload", http.StatusBadRequest)
			return
		}
		err = e.billingService.HandleSubscriptionDeleted(r.Context(), &sub)
	case "invoice.paid":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			http.Error(w, "Invalid event payload", http.StatusBadRequest)
			return
		}
		err = e.billingService.HandleInvoicePaid(r.Context(), &invoice)
	default:
		slog.Debug("Unhandled webhook event", "type", event.Type)
	}

	if err != nil {
		slog.Error("Webhook handling failed", "error", err, "type", event.Type)
		http.Error(w, "Webhook handling failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

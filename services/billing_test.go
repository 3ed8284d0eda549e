package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanCredits(t *testing.T) {
	assert.Equal(t, int64(ProCredits), planCredits("pro"))
	assert.Equal(t, int64(TeamCredits), planCredits("team"))
	assert.Equal(t, int64(TrialCredits), planCredits("free"))
	assert.Equal(t, int64(TrialCredits), planCredits(""))
	assert.Equal(t, int64(TrialCredits), planCredits("enterprise"))
}

func TestPriceForPlan(t *testing.T) {
	svc := NewBillingService(nil, &Config{
		Stripe: StripeConfig{
			ProPriceID:  "price_pro_123",
			TeamPriceID: "price_team_456",
		},
	})

	price, err := svc.priceForPlan("pro")
	require.NoError(t, err)
	assert.Equal(t, "price_pro_123", price)

	price, err = svc.priceForPlan("team")
	require.NoError(t, err)
	assert.Equal(t, "price_team_456", price)

	_, err = svc.priceForPlan("free")
	assert.Error(t, err)

	_, err = svc.priceForPlan("")
	assert.Error(t, err)
}

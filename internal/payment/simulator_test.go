package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmeshcher/storefront/internal/model"
)

func TestEvaluateCardByLastDigit(t *testing.T) {
	for price := int64(0); price < 200; price++ {
		got := Evaluate(price, model.PaymentMethodCard)
		want := model.VerdictApproved
		if d := price % 10; d == 8 || d == 9 {
			want = model.VerdictRejected
		}
		assert.Equal(t, want, got, "price %d", price)
	}
}

func TestEvaluateKnownPrices(t *testing.T) {
	tests := []struct {
		price  int64
		method model.PaymentMethod
		want   model.Verdict
	}{
		{8100, model.PaymentMethodCard, model.VerdictApproved},
		{9998, model.PaymentMethodCard, model.VerdictRejected},
		{9999, model.PaymentMethodCard, model.VerdictRejected},
		{9997, model.PaymentMethodCard, model.VerdictApproved},
		{5000, model.PaymentMethodBankTransfer, model.VerdictApproved},
		{9998, model.PaymentMethodBankTransfer, model.VerdictApproved},
		{9999, model.PaymentMethodCash, model.VerdictApproved},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Evaluate(tt.price, tt.method), "%d via %s", tt.price, tt.method)
	}
}

func TestEvaluateNonCardAlwaysApproved(t *testing.T) {
	for _, method := range []model.PaymentMethod{model.PaymentMethodBankTransfer, model.PaymentMethodCash} {
		for price := int64(0); price < 100; price++ {
			assert.Equal(t, model.VerdictApproved, Evaluate(price, method))
		}
	}
}

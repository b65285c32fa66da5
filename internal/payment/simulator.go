// Package payment содержит детерминированный симулятор платёжного шлюза.
package payment

import "github.com/mmeshcher/storefront/internal/model"

// Evaluate принимает решение по оплате. Оплата картой отклоняется, если последняя
// десятичная цифра итоговой цены равна 8 или 9; остальные способы всегда одобряются.
func Evaluate(finalPrice int64, method model.PaymentMethod) model.Verdict {
	if method != model.PaymentMethodCard {
		return model.VerdictApproved
	}

	if finalPrice < 0 {
		finalPrice = -finalPrice
	}

	if lastDigit := finalPrice % 10; lastDigit == 8 || lastDigit == 9 {
		return model.VerdictRejected
	}

	return model.VerdictApproved
}

// Package pricing вычисляет итоговую цену товара с учётом скидки.
package pricing

// ApplyDiscount возвращает цену после скидки в процентах.
// Результат округляется до ближайшей единицы валюты, половина округляется вверх.
// Процент вне диапазона 0..100 приводится к границам.
// Цена раскладывается на сотни и остаток, поэтому промежуточное произведение
// не выходит за пределы int64 при любой неотрицательной цене.
func ApplyDiscount(price int64, percentage int) int64 {
	if price <= 0 {
		return 0
	}
	if percentage <= 0 {
		return price
	}
	if percentage >= 100 {
		return 0
	}
	keep := int64(100 - percentage)
	q, r := price/100, price%100
	return q*keep + (r*keep+50)/100
}

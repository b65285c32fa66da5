// Package model содержит доменные сущности витрины.
package model

import "time"

// ProductType описывает вид товара в каталоге.
type ProductType string

const (
	ProductTypeEvent          ProductType = "event"
	ProductTypeDigitalContent ProductType = "digital_content"
)

// Valid сообщает, является ли тип товара известным.
func (t ProductType) Valid() bool {
	return t == ProductTypeEvent || t == ProductTypeDigitalContent
}

// Product представляет товар каталога. Цена хранится в минимальных единицах валюты.
type Product struct {
	ID          string
	Type        ProductType
	Title       string
	Description *string
	Price       int64
	CreatedAt   time.Time
}

// EventDetails содержит параметры события, связанные с товаром типа event.
type EventDetails struct {
	ProductID       string
	EventDate       time.Time
	DurationMinutes int
	Capacity        *int
	Location        *string
	MeetingURL      *string
}

// DigitalContentDetails содержит данные о файле цифрового материала.
type DigitalContentDetails struct {
	ProductID string
	FileName  string
	FileURL   string
}

// DiscountCode описывает процентный код скидки.
type DiscountCode struct {
	ID                 string
	Code               string
	DiscountPercentage int
	Active             bool
	CreatedAt          time.Time
}

// PaymentMethod описывает способ оплаты покупки.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
)

// Valid сообщает, является ли способ оплаты допустимым.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCash:
		return true
	}
	return false
}

// PaymentStatus описывает статус оплаты покупки.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Terminal сообщает, что статус больше не может измениться.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// Purchase описывает покупку товара покупателем.
type Purchase struct {
	ID              string
	ProductID       string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   *string
	CustomerAddress *string
	OriginalPrice   int64
	FinalPrice      int64
	DiscountCode    *string
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	PaymentDate     *time.Time
	CreatedAt       time.Time
}

// Verdict описывает решение платёжного симулятора.
type Verdict string

const (
	VerdictApproved Verdict = "approved"
	VerdictRejected Verdict = "rejected"
)

// Status возвращает терминальный статус покупки, соответствующий решению.
func (v Verdict) Status() PaymentStatus {
	if v == VerdictApproved {
		return PaymentStatusCompleted
	}
	return PaymentStatusFailed
}

// Remaining описывает количество свободных мест на событии.
type Remaining struct {
	Unlimited bool
	Seats     int
}

// Unlimited возвращает значение для события без ограничения вместимости.
func Unlimited() Remaining {
	return Remaining{Unlimited: true}
}

// Available сообщает, можно ли зарегистрировать ещё одного участника.
func (r Remaining) Available() bool {
	return r.Unlimited || r.Seats > 0
}

// Revenue содержит сводку продаж по набору покупок.
type Revenue struct {
	Total     int64 `json:"total"`
	Completed int   `json:"completed"`
	Purchases int   `json:"purchases"`
}

// Principal описывает аутентифицированного субъекта, выполняющего операцию.
type Principal struct {
	Subject string
	Admin   bool
}

package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mmeshcher/storefront/internal/model"
)

var reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

const (
	minNameLength    = 3
	minPhoneLength   = 9
	minAddressLength = 5
	minTitleLength   = 3
	minCodeLength    = 3
	maxFieldLength   = 255
)

func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", model.ErrValidation, field, reason)
}

// Email проверяет формат адреса электронной почты.
func Email(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && len(s) <= maxFieldLength && reEmail.MatchString(s)
}

// Buyer проверяет контактные данные покупателя. Телефон и адрес необязательны,
// но если указаны, должны иметь минимальную длину.
func Buyer(name, email string, phone, address *string) error {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < minNameLength || len(name) > maxFieldLength {
		return invalid("name", "must be at least 3 characters")
	}
	if !Email(email) {
		return invalid("email", "is malformed")
	}
	if phone != nil && utf8.RuneCountInString(strings.TrimSpace(*phone)) < minPhoneLength {
		return invalid("phone", "must be at least 9 characters")
	}
	if address != nil && utf8.RuneCountInString(strings.TrimSpace(*address)) < minAddressLength {
		return invalid("address", "must be at least 5 characters")
	}
	return nil
}

// Product проверяет общие поля товара.
func Product(title string, price int64) error {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) < minTitleLength || len(title) > maxFieldLength {
		return invalid("title", "must be at least 3 characters")
	}
	if price < 0 {
		return invalid("price", "must not be negative")
	}
	return nil
}

// Event проверяет параметры события. Должен быть указан хотя бы один способ доступа.
func Event(d model.EventDetails) error {
	if d.EventDate.IsZero() {
		return invalid("event_date", "is required")
	}
	if d.DurationMinutes < 1 {
		return invalid("duration", "must be at least 1 minute")
	}
	if d.Capacity != nil && *d.Capacity < 1 {
		return invalid("capacity", "must be at least 1")
	}

	hasLocation := d.Location != nil && strings.TrimSpace(*d.Location) != ""
	hasMeeting := d.MeetingURL != nil && strings.TrimSpace(*d.MeetingURL) != ""
	if !hasLocation && !hasMeeting {
		return invalid("access", "requires a location or a meeting url")
	}
	if hasMeeting {
		u, err := url.Parse(strings.TrimSpace(*d.MeetingURL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("meeting_url", "must be an absolute http(s) url")
		}
	}
	return nil
}

// DiscountCode нормализует код скидки и проверяет процент.
func DiscountCode(code string, percentage int) (string, error) {
	code = NormalizeCode(code)
	if utf8.RuneCountInString(code) < minCodeLength || len(code) > 64 {
		return "", invalid("code", "must be at least 3 characters")
	}
	if percentage < 1 || percentage > 100 {
		return "", invalid("discount_percentage", "must be between 1 and 100")
	}
	return code, nil
}

// NormalizeCode приводит код скидки к каноническому виду.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

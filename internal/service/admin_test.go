package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/storefront/internal/model"
)

func TestAuthenticateAdmin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewService(newMemRepo(), Deps{AdminPasswordHash: string(hash)})

	p, err := svc.AuthenticateAdmin("s3cret")
	require.NoError(t, err)
	assert.True(t, p.Admin)
	assert.Equal(t, AdminSubject, p.Subject)

	_, err = svc.AuthenticateAdmin("wrong")
	require.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = svc.AuthenticateAdmin("")
	require.ErrorIs(t, err, model.ErrUnauthorized)

	unconfigured := NewService(newMemRepo(), Deps{})
	_, err = unconfigured.AuthenticateAdmin("s3cret")
	require.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestRegisterClient_CreatesPendingCashPurchase(t *testing.T) {
	repo := newMemRepo()
	id := repo.addEvent(1500, ptr(1))
	svc := NewService(repo, Deps{PublicBaseURL: "https://shop.example.com/"})

	reg, err := svc.RegisterClient(context.Background(), admin, id, ClientRegistration{
		Name:  "Grace Hopper",
		Email: "grace@example.com",
		Phone: ptr("+1 555 0100"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusPending, reg.Purchase.PaymentStatus)
	assert.Equal(t, model.PaymentMethodCash, reg.Purchase.PaymentMethod)
	assert.Equal(t, int64(1500), reg.Purchase.FinalPrice)
	assert.Nil(t, reg.Purchase.PaymentDate)

	link, err := url.Parse(reg.PaymentLink)
	require.NoError(t, err)
	assert.Equal(t, "shop.example.com", link.Host)
	assert.Equal(t, "/payment", link.Path)
	assert.Equal(t, id, link.Query().Get("productId"))
	assert.Equal(t, "event", link.Query().Get("productType"))
	assert.Equal(t, "1500", link.Query().Get("originalPrice"))
	assert.Equal(t, reg.Purchase.ID, link.Query().Get("purchaseId"))

	_, err = svc.RegisterClient(context.Background(), admin, id, ClientRegistration{
		Name:  "Alan Turing",
		Email: "alan@example.com",
	})
	require.ErrorIs(t, err, model.ErrCapacityExceeded)
}

func TestRegisterClient_RequiresAdmin(t *testing.T) {
	repo := newMemRepo()
	id := repo.addEvent(1500, nil)
	svc := NewService(repo, Deps{})

	_, err := svc.RegisterClient(context.Background(), model.Principal{Subject: "guest"}, id, ClientRegistration{
		Name:  "Grace Hopper",
		Email: "grace@example.com",
	})
	require.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestAdminFinalize_CompletesRegistration(t *testing.T) {
	repo := newMemRepo()
	id := repo.addEvent(1500, nil)
	svc := NewService(repo, Deps{})

	reg, err := svc.RegisterClient(context.Background(), admin, id, ClientRegistration{
		Name:  "Grace Hopper",
		Email: "grace@example.com",
	})
	require.NoError(t, err)

	p, err := svc.AdminFinalize(context.Background(), admin, reg.Purchase.ID, model.PaymentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, p.PaymentStatus)

	sales, err := svc.AdminProductPurchases(context.Background(), admin, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), sales.Revenue.Total)
	assert.Equal(t, 1, sales.Revenue.Completed)
	assert.Equal(t, id, sales.Product.ID)

	_, err = svc.AdminFinalize(context.Background(), admin, reg.Purchase.ID, model.PaymentStatusFailed)
	require.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestAdminPurchases_Revenue(t *testing.T) {
	repo := newMemRepo()
	a := repo.addDigital(1000, "https://blobs.test/digital-content/a.mp4")
	b := repo.addDigital(2008, "https://blobs.test/digital-content/b.mp4")
	svc := NewService(repo, Deps{})

	_, err := svc.Checkout(context.Background(), checkoutRequest(a, model.ProductTypeDigitalContent, model.PaymentMethodCard))
	require.NoError(t, err)
	_, err = svc.Checkout(context.Background(), checkoutRequest(b, model.ProductTypeDigitalContent, model.PaymentMethodCard))
	require.NoError(t, err)

	sales, err := svc.AdminPurchases(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, sales.Purchases, 2)
	assert.Equal(t, int64(1000), sales.Revenue.Total)
	assert.Equal(t, 1, sales.Revenue.Completed)

	_, err = svc.AdminPurchases(context.Background(), model.Principal{})
	require.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestAdminCapacity(t *testing.T) {
	repo := newMemRepo()
	id := repo.addEvent(1000, ptr(4))
	svc := NewService(repo, Deps{})

	_, err := svc.Checkout(context.Background(), checkoutRequest(id, model.ProductTypeEvent, model.PaymentMethodCash))
	require.NoError(t, err)

	details, remaining, err := svc.AdminCapacity(context.Background(), admin, id)
	require.NoError(t, err)
	assert.Equal(t, 4, *details.Capacity)
	assert.Equal(t, 3, remaining.Seats)
}

func TestDiscountCodes(t *testing.T) {
	repo := newMemRepo()
	id := repo.addDigital(9999, "https://blobs.test/digital-content/a.mp4")
	svc := NewService(repo, Deps{})

	dc, err := svc.CreateDiscountCode(context.Background(), admin, " spring ", 10)
	require.NoError(t, err)
	assert.Equal(t, "SPRING", dc.Code)
	assert.True(t, dc.Active)

	_, err = svc.CreateDiscountCode(context.Background(), admin, "SPRING", 20)
	require.ErrorIs(t, err, model.ErrConflict)

	_, err = svc.CreateDiscountCode(context.Background(), admin, "BIG", 101)
	require.ErrorIs(t, err, model.ErrValidation)

	q, err := svc.QuoteDiscount(context.Background(), id, "spring")
	require.NoError(t, err)
	assert.True(t, q.Applied)
	assert.Equal(t, int64(8999), q.FinalPrice)

	toggled, err := svc.ToggleDiscountCode(context.Background(), admin, dc.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	q, err = svc.QuoteDiscount(context.Background(), id, "SPRING")
	require.NoError(t, err)
	assert.False(t, q.Applied)
	assert.Equal(t, int64(9999), q.FinalPrice)

	_, err = svc.QuoteDiscount(context.Background(), id, "WINTER")
	require.ErrorIs(t, err, model.ErrInvalidCode)

	codes, err := svc.ListDiscountCodes(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, codes, 1)
}

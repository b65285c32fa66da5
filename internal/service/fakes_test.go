package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/storefront/internal/events"
	"github.com/mmeshcher/storefront/internal/model"
)

// memRepo хранит записи в памяти и повторяет атомарную проверку вместимости PostgresRepository.
type memRepo struct {
	mu        sync.Mutex
	clock     time.Time
	products  map[string]model.Product
	events    map[string]model.EventDetails
	contents  map[string]model.DigitalContentDetails
	codes     map[string]model.DiscountCode
	purchases map[string]model.Purchase

	finalizeErr error
	contentErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{
		clock:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		products:  make(map[string]model.Product),
		events:    make(map[string]model.EventDetails),
		contents:  make(map[string]model.DigitalContentDetails),
		codes:     make(map[string]model.DiscountCode),
		purchases: make(map[string]model.Purchase),
	}
}

func (r *memRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memRepo) Close() error { return nil }

func (r *memRepo) CreateEvent(_ context.Context, p *model.Product, d *model.EventDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = r.tick()
	d.ProductID = p.ID
	r.products[p.ID] = *p
	r.events[p.ID] = *d
	return nil
}

func (r *memRepo) CreateDigitalContent(_ context.Context, p *model.Product, d *model.DigitalContentDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.contentErr != nil {
		return r.contentErr
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = r.tick()
	d.ProductID = p.ID
	r.products[p.ID] = *p
	r.contents[p.ID] = *d
	return nil
}

func (r *memRepo) GetProduct(_ context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) ListProducts(_ context.Context, typ model.ProductType) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Product
	for _, p := range r.products {
		if typ == "" || p.Type == typ {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) UpdateProduct(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[p.ID]; !ok {
		return model.ErrNotFound
	}
	r.products[p.ID] = *p
	return nil
}

func (r *memRepo) DeleteProduct(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.products, id)
	delete(r.events, id)
	delete(r.contents, id)
	for pid, p := range r.purchases {
		if p.ProductID == id {
			delete(r.purchases, pid)
		}
	}
	return nil
}

func (r *memRepo) GetEventDetails(_ context.Context, productID string) (*model.EventDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.events[productID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &d, nil
}

func (r *memRepo) UpdateEventDetails(_ context.Context, d *model.EventDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[d.ProductID]; !ok {
		return model.ErrNotFound
	}
	r.events[d.ProductID] = *d
	return nil
}

func (r *memRepo) GetDigitalContentDetails(_ context.Context, productID string) (*model.DigitalContentDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.contents[productID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &d, nil
}

func (r *memRepo) UpdateDigitalContentDetails(_ context.Context, d *model.DigitalContentDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contents[d.ProductID]; !ok {
		return model.ErrNotFound
	}
	r.contents[d.ProductID] = *d
	return nil
}

func (r *memRepo) CreateDiscountCode(_ context.Context, d *model.DiscountCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[d.Code]; ok {
		return model.ErrConflict
	}
	d.ID = uuid.NewString()
	d.CreatedAt = r.tick()
	r.codes[d.Code] = *d
	return nil
}

func (r *memRepo) GetDiscountCode(_ context.Context, code string) (*model.DiscountCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.codes[code]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &d, nil
}

func (r *memRepo) ListDiscountCodes(_ context.Context) ([]model.DiscountCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.DiscountCode, 0, len(r.codes))
	for _, d := range r.codes {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) ToggleDiscountCode(_ context.Context, id string) (*model.DiscountCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for code, d := range r.codes {
		if d.ID == id {
			d.Active = !d.Active
			r.codes[code] = d
			return &d, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *memRepo) CreatePurchase(_ context.Context, p *model.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[p.ProductID]; !ok {
		return model.ErrNotFound
	}
	if d, ok := r.events[p.ProductID]; ok && d.Capacity != nil {
		if r.countLocked(p.ProductID) >= *d.Capacity {
			return model.ErrCapacityExceeded
		}
	}

	p.ID = uuid.NewString()
	p.CreatedAt = r.tick()
	r.purchases[p.ID] = *p
	return nil
}

func (r *memRepo) FinalizePurchase(_ context.Context, id string, status model.PaymentStatus, paymentDate *time.Time) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalizeErr != nil {
		return nil, r.finalizeErr
	}

	p, ok := r.purchases[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if p.PaymentStatus != model.PaymentStatusPending {
		return nil, model.ErrInvalidTransition
	}

	p.PaymentStatus = status
	p.PaymentDate = paymentDate
	r.purchases[id] = p
	return &p, nil
}

func (r *memRepo) GetPurchase(_ context.Context, id string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.purchases[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) ListPurchases(_ context.Context) ([]model.Purchase, error) {
	return r.listPurchases(func(model.Purchase) bool { return true }), nil
}

func (r *memRepo) ListPurchasesByProduct(_ context.Context, productID string) ([]model.Purchase, error) {
	return r.listPurchases(func(p model.Purchase) bool { return p.ProductID == productID }), nil
}

func (r *memRepo) listPurchases(keep func(model.Purchase) bool) []model.Purchase {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []model.Purchase{}
	for _, p := range r.purchases {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memRepo) CountPurchases(_ context.Context, productID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countLocked(productID), nil
}

func (r *memRepo) countLocked(productID string) int {
	n := 0
	for _, p := range r.purchases {
		if p.ProductID == productID {
			n++
		}
	}
	return n
}

func (r *memRepo) CountPendingBefore(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, p := range r.purchases {
		if p.PaymentStatus == model.PaymentStatusPending && p.CreatedAt.Before(before) {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) addEvent(price int64, capacity *int) string {
	p := &model.Product{Type: model.ProductTypeEvent, Title: "Go meetup", Price: price}
	loc := "Main hall"
	d := &model.EventDetails{
		EventDate:       time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC),
		DurationMinutes: 90,
		Capacity:        capacity,
		Location:        &loc,
	}
	_ = r.CreateEvent(context.Background(), p, d)
	return p.ID
}

func (r *memRepo) addDigital(price int64, fileURL string) string {
	p := &model.Product{Type: model.ProductTypeDigitalContent, Title: "Workshop recording", Price: price}
	d := &model.DigitalContentDetails{FileName: "recording.mp4", FileURL: fileURL}
	_ = r.CreateDigitalContent(context.Background(), p, d)
	return p.ID
}

func (r *memRepo) addCode(code string, pct int, active bool) model.DiscountCode {
	d := &model.DiscountCode{Code: code, DiscountPercentage: pct, Active: active}
	_ = r.CreateDiscountCode(context.Background(), d)
	return *d
}

type memBlobs struct {
	mu        sync.Mutex
	files     map[string][]byte
	removed   []string
	uploadErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{files: make(map[string][]byte)}
}

func (b *memBlobs) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.uploadErr != nil {
		return "", b.uploadErr
	}
	b.files[key] = data
	return "https://blobs.test/digital-content/" + key, nil
}

func (b *memBlobs) Download(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.files[key]
	if !ok {
		return nil, model.ErrNotFound
	}
	return data, nil
}

func (b *memBlobs) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.files, key)
	b.removed = append(b.removed, key)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.PurchaseEvent
	err    error
}

func (p *recordingPublisher) PublishPurchase(_ context.Context, e events.PurchaseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) published() []events.PurchaseEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.PurchaseEvent(nil), p.events...)
}

// stalledPublisher имитирует недоступный брокер: ждёт отмены контекста.
type stalledPublisher struct {
	deadlineSet atomic.Bool
}

func (p *stalledPublisher) PublishPurchase(ctx context.Context, _ events.PurchaseEvent) error {
	if _, ok := ctx.Deadline(); ok {
		p.deadlineSet.Store(true)
	}
	<-ctx.Done()
	return ctx.Err()
}

var errBoom = errors.New("boom")

var admin = model.Principal{Subject: AdminSubject, Admin: true}

func ptr[T any](v T) *T { return &v }

package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rdelacruz/freshmarket-backend/internal/cart"
	"github.com/rdelacruz/freshmarket-backend/internal/notify"
	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	"github.com/rdelacruz/freshmarket-backend/pkg/enums"
	pkgerrors "github.com/rdelacruz/freshmarket-backend/pkg/errors"
	"github.com/rdelacruz/freshmarket-backend/pkg/pricing"
)

type fakeOrderWriter struct {
	createFn     func(ctx context.Context, order *models.Order) (*models.Order, error)
	createCalls  int
	notifiedIDs  []uuid.UUID
	markNotified chan uuid.UUID
}

func (f *fakeOrderWriter) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	f.createCalls++
	if f.createFn != nil {
		return f.createFn(ctx, order)
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return order, nil
}

func (f *fakeOrderWriter) MarkNotified(_ context.Context, id uuid.UUID) error {
	f.notifiedIDs = append(f.notifiedIDs, id)
	if f.markNotified != nil {
		f.markNotified <- id
	}
	return nil
}

type fakeChannel struct {
	err  error
	sent chan notify.Payload
}

func (f *fakeChannel) Send(_ context.Context, payload notify.Payload) error {
	if f.sent != nil {
		f.sent <- payload
	}
	return f.err
}

func testPolicy() pricing.Policy {
	return pricing.Policy{
		FlatFee:   decimal.NewFromInt(5),
		FreeAbove: decimal.NewFromInt(50),
	}
}

func product(name string, price int64) models.Product {
	return models.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: decimal.NewFromInt(price),
		Stock: 100,
	}
}

// Cart from the pricing walkthrough: 2 units of A at 10, 1 unit of B at 5
// with a single add-on at 2. Subtotal 27, shipping 5, total 32.
func loadedCart() *cart.Store {
	store := cart.NewStore(testPolicy())
	a := product("Heirloom Tomatoes", 10)
	b := product("Sourdough Loaf", 5)
	slicing := models.AddOnService{ID: uuid.New(), Name: "Slicing", Price: decimal.NewFromInt(2)}

	store.AddItem(a)
	store.AddItem(a)
	store.AddItem(b, slicing)
	return store
}

func validRequest() DeliveryRequest {
	return DeliveryRequest{
		Name:          "Ines Marchetti",
		Address:       "44 Via Roma",
		Phone:         "5550134",
		PreferredTime: "morning",
	}
}

func newTestService(t *testing.T, repo *fakeOrderWriter, channel *fakeChannel) Service {
	t.Helper()
	svc, err := NewService(repo, channel, nil, nil, time.Second)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func TestSubmit_emptyCart(t *testing.T) {
	repo := &fakeOrderWriter{}
	svc := newTestService(t, repo, &fakeChannel{})

	_, err := svc.Submit(context.Background(), cart.NewStore(testPolicy()), validRequest(), nil)
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected %s, got %v", pkgerrors.CodeValidation, err)
	}
	if repo.createCalls != 0 {
		t.Fatalf("empty cart must not reach the store, got %d create calls", repo.createCalls)
	}
}

func TestSubmit_rejectsNonNumericPhone(t *testing.T) {
	for _, phone := range []string{"555-0134", "-5.5", "+1.2", "5.5", "+"} {
		repo := &fakeOrderWriter{}
		svc := newTestService(t, repo, &fakeChannel{})

		req := validRequest()
		req.Phone = phone
		_, err := svc.Submit(context.Background(), loadedCart(), req, nil)
		coded := pkgerrors.As(err)
		if coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("phone %q: expected %s, got %v", phone, pkgerrors.CodeValidation, err)
		}
		if details, ok := coded.Details().(map[string]string); !ok || details["phone"] == "" {
			t.Fatalf("phone %q: expected a phone field detail, got %v", phone, coded.Details())
		}
		if repo.createCalls != 0 {
			t.Fatalf("phone %q must be rejected before persistence", phone)
		}
	}
}

func TestSubmit_acceptsPhoneWithLeadingPlus(t *testing.T) {
	repo := &fakeOrderWriter{markNotified: make(chan uuid.UUID, 1)}
	svc := newTestService(t, repo, &fakeChannel{sent: make(chan notify.Payload, 1)})

	req := validRequest()
	req.Phone = "+445550134"
	conf, err := svc.Submit(context.Background(), loadedCart(), req, nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if conf.Order.Phone == nil || *conf.Order.Phone != "+445550134" {
		t.Fatalf("Phone = %v, want +445550134", conf.Order.Phone)
	}
}

func TestSubmit_missingFields(t *testing.T) {
	repo := &fakeOrderWriter{}
	svc := newTestService(t, repo, &fakeChannel{})

	_, err := svc.Submit(context.Background(), loadedCart(), DeliveryRequest{Name: "Ines Marchetti"}, nil)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected %s, got %v", pkgerrors.CodeValidation, err)
	}
	details, ok := coded.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", coded.Details())
	}
	if _, found := details["address"]; !found {
		t.Fatalf("details missing address: %v", details)
	}
	if _, found := details["phone"]; !found {
		t.Fatalf("details missing phone: %v", details)
	}
}

func TestSubmit_createFailureLeavesCartUntouched(t *testing.T) {
	repo := &fakeOrderWriter{
		createFn: func(_ context.Context, _ *models.Order) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "store unavailable")
		},
	}
	svc := newTestService(t, repo, &fakeChannel{})

	store := loadedCart()
	before := store.Len()

	_, err := svc.Submit(context.Background(), store, validRequest(), nil)
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if store.Len() != before {
		t.Fatalf("cart changed on failed submit: %d -> %d lines", before, store.Len())
	}
}

func TestSubmit_timeoutSurfacesRetryable(t *testing.T) {
	repo := &fakeOrderWriter{
		createFn: func(ctx context.Context, _ *models.Order) (*models.Order, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	channel := &fakeChannel{}
	svc, err := NewService(repo, channel, nil, nil, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	store := loadedCart()
	_, err = svc.Submit(context.Background(), store, validRequest(), nil)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeTimeout {
		t.Fatalf("expected %s, got %v", pkgerrors.CodeTimeout, err)
	}
	if !coded.Retryable() {
		t.Fatal("timeout must surface as retryable")
	}
	if store.Len() == 0 {
		t.Fatal("cart must survive a timed-out submit")
	}
}

func TestSubmit_happyPath(t *testing.T) {
	repo := &fakeOrderWriter{markNotified: make(chan uuid.UUID, 1)}
	channel := &fakeChannel{sent: make(chan notify.Payload, 1)}
	svc := newTestService(t, repo, channel)

	store := loadedCart()
	conf, err := svc.Submit(context.Background(), store, validRequest(), nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if !conf.Order.TotalAmount.Equal(decimal.NewFromInt(32)) {
		t.Fatalf("TotalAmount = %s, want 32", conf.Order.TotalAmount)
	}
	if conf.Order.Status != enums.OrderStatusNew {
		t.Fatalf("Status = %s, want new", conf.Order.Status)
	}
	if len(conf.Order.Items) != 2 {
		t.Fatalf("Items = %d, want 2", len(conf.Order.Items))
	}
	if conf.Order.Phone == nil || *conf.Order.Phone != "5550134" {
		t.Fatalf("Phone = %v, want 5550134", conf.Order.Phone)
	}
	if conf.Order.PreferredTime == nil || *conf.Order.PreferredTime != enums.DeliverySlotMorning {
		t.Fatalf("PreferredTime = %v, want morning", conf.Order.PreferredTime)
	}
	if !conf.Totals.Subtotal.Equal(decimal.NewFromInt(27)) {
		t.Fatalf("Subtotal = %s, want 27", conf.Totals.Subtotal)
	}
	if store.Len() != 0 {
		t.Fatal("cart must be cleared after a successful submit")
	}

	select {
	case payload := <-channel.sent:
		if payload.OrderID != conf.Order.ID.String() {
			t.Fatalf("notification for wrong order: %s", payload.OrderID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never sent")
	}
	select {
	case id := <-repo.markNotified:
		if id != conf.Order.ID {
			t.Fatalf("marked wrong order notified: %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("order was never marked notified")
	}
}

func TestSubmit_notificationFailureDoesNotFailOrder(t *testing.T) {
	repo := &fakeOrderWriter{}
	channel := &fakeChannel{err: errors.New("smtp down"), sent: make(chan notify.Payload, 1)}
	svc := newTestService(t, repo, channel)

	store := loadedCart()
	conf, err := svc.Submit(context.Background(), store, validRequest(), nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if conf == nil || store.Len() != 0 {
		t.Fatal("submission must complete despite a failing channel")
	}

	select {
	case <-channel.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("notification attempt never happened")
	}
	if len(repo.notifiedIDs) != 0 {
		t.Fatal("failed notification must not mark the order notified")
	}
}

func TestSubmit_reportsStageProgression(t *testing.T) {
	repo := &fakeOrderWriter{markNotified: make(chan uuid.UUID, 1)}
	channel := &fakeChannel{sent: make(chan notify.Payload, 1)}
	svc := newTestService(t, repo, channel)

	var stages []Stage
	_, err := svc.Submit(context.Background(), loadedCart(), validRequest(), func(st Stage) {
		stages = append(stages, st)
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := []Stage{StageValidating, StagePersisting, StageNotifying, StageConfirmed}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stages = %v, want %v", stages, want)
		}
	}
}

func TestSubmit_failedValidationEndsInFailedStage(t *testing.T) {
	svc := newTestService(t, &fakeOrderWriter{}, &fakeChannel{})

	var stages []Stage
	_, err := svc.Submit(context.Background(), cart.NewStore(testPolicy()), validRequest(), func(st Stage) {
		stages = append(stages, st)
	})
	if err == nil {
		t.Fatal("expected an error for an empty cart")
	}
	if len(stages) != 2 || stages[0] != StageValidating || stages[1] != StageFailed {
		t.Fatalf("stages = %v, want [validating failed]", stages)
	}
}

package checkout

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rdelacruz/freshmarket-backend/internal/cart"
	"github.com/rdelacruz/freshmarket-backend/internal/notify"
	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	dbtypes "github.com/rdelacruz/freshmarket-backend/pkg/db/types"
	"github.com/rdelacruz/freshmarket-backend/pkg/enums"
	pkgerrors "github.com/rdelacruz/freshmarket-backend/pkg/errors"
	"github.com/rdelacruz/freshmarket-backend/pkg/logger"
	"github.com/rdelacruz/freshmarket-backend/pkg/metrics"
	"github.com/rdelacruz/freshmarket-backend/pkg/pricing"
)

// DeliveryRequest is the ephemeral delivery form a customer submits with
// their cart. Phone must be digits only (an optional leading + is allowed);
// unparseable numbers are rejected up front rather than silently dropped,
// so no order is ever created without a usable contact number.
type DeliveryRequest struct {
	Name          string `json:"name" validate:"required"`
	Address       string `json:"address" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	PreferredTime string `json:"preferred_time" validate:"omitempty,oneof=morning afternoon evening"`
}

// Confirmation carries the full persisted order so the confirmation view
// can render without a follow-up read.
type Confirmation struct {
	Order  models.Order   `json:"order"`
	Totals pricing.Totals `json:"totals"`
}

type orderWriter interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	MarkNotified(ctx context.Context, id uuid.UUID) error
}

// Stage marks where a submission attempt currently is. Attempts move
// validating -> persisting -> notifying -> confirmed, or stop at failed.
type Stage string

const (
	StageValidating Stage = "validating"
	StagePersisting Stage = "persisting"
	StageNotifying  Stage = "notifying"
	StageConfirmed  Stage = "confirmed"
	StageFailed     Stage = "failed"
)

// ProgressFunc receives stage transitions during Submit so a caller can
// surface submission progress. May be nil.
type ProgressFunc func(Stage)

// Service runs one submission attempt: validate, snapshot and persist,
// fire the notification, then clear the cart.
type Service interface {
	Submit(ctx context.Context, cartStore *cart.Store, req DeliveryRequest, progress ProgressFunc) (*Confirmation, error)
}

type service struct {
	repo           orderWriter
	channel        notify.Channel
	logg           *logger.Logger
	metrics        *metrics.OrderMetrics
	persistTimeout time.Duration
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// NewService builds the submission pipeline.
func NewService(repo orderWriter, channel notify.Channel, logg *logger.Logger, m *metrics.OrderMetrics, persistTimeout time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if channel == nil {
		return nil, fmt.Errorf("notification channel required")
	}
	if persistTimeout <= 0 {
		persistTimeout = 10 * time.Second
	}
	return &service{
		repo:           repo,
		channel:        channel,
		logg:           logg,
		metrics:        m,
		persistTimeout: persistTimeout,
	}, nil
}

func (s *service) Submit(ctx context.Context, cartStore *cart.Store, req DeliveryRequest, progress ProgressFunc) (*Confirmation, error) {
	step := func(st Stage) {
		if progress != nil {
			progress(st)
		}
	}

	step(StageValidating)
	if cartStore == nil || cartStore.Len() == 0 {
		s.metrics.IncSubmissionRejected("empty_cart")
		step(StageFailed)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := s.validateRequest(req); err != nil {
		s.metrics.IncSubmissionRejected("invalid_delivery_info")
		step(StageFailed)
		return nil, err
	}

	lines := cartStore.Snapshot()
	totals := cartStore.Totals()
	order := buildOrder(lines, totals, req)

	persistCtx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	step(StagePersisting)
	created, err := s.repo.Create(persistCtx, order)
	if err != nil {
		// The cart is untouched here so the customer keeps their
		// selections on a failed attempt.
		step(StageFailed)
		if errors.Is(err, context.DeadlineExceeded) || persistCtx.Err() != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "persist order timed out")
		}
		return nil, err
	}

	step(StageNotifying)
	go s.sendNotification(*created)

	cartStore.Clear()
	step(StageConfirmed)

	return &Confirmation{Order: *created, Totals: totals}, nil
}

// phoneRe admits digit strings with an optional leading +. Signed or
// decimal numbers are not phone numbers.
var phoneRe = regexp.MustCompile(`^\+?[0-9]+$`)

func (s *service) validateRequest(req DeliveryRequest) error {
	details := map[string]string{}

	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery details")
		}
		for _, fieldErr := range fieldErrs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
	}
	if req.Phone != "" && !phoneRe.MatchString(req.Phone) {
		details["phone"] = "must contain digits only"
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery details").WithDetails(details)
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return "is invalid"
}

// buildOrder snapshots the cart into an immutable order record. Catalog
// edits after this point never reach the stored items or total.
func buildOrder(lines []cart.Line, totals pricing.Totals, req DeliveryRequest) *models.Order {
	items := make(dbtypes.OrderItems, 0, len(lines))
	for _, line := range lines {
		item := dbtypes.OrderItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			UnitLabel:   line.Product.UnitLabel,
			UnitPrice:   line.Product.Price,
			Quantity:    line.Quantity,
		}
		priced := pricing.Line{UnitPrice: line.Product.Price, Quantity: line.Quantity}
		for _, svc := range line.Services {
			item.Services = append(item.Services, dbtypes.OrderItemService{
				ID:    svc.ID,
				Name:  svc.Name,
				Price: svc.Price,
			})
			priced.ServicePrices = append(priced.ServicePrices, svc.Price)
		}
		item.LineTotal = pricing.LineTotal(priced)
		items = append(items, item)
	}

	phone := req.Phone
	order := &models.Order{
		CustomerName: req.Name,
		Address:      req.Address,
		Phone:        &phone,
		Items:        items,
		TotalAmount:  totals.Total,
		Status:       enums.OrderStatusNew,
	}
	if req.PreferredTime != "" {
		if slot, err := enums.ParseDeliverySlot(req.PreferredTime); err == nil {
			order.PreferredTime = &slot
		}
	}
	return order
}

// sendNotification runs detached from the submission. It cannot fail the
// order: errors are logged and the panic boundary keeps a misbehaving
// channel from crashing the process.
func (s *service) sendNotification(order models.Order) {
	defer func() {
		if r := recover(); r != nil && s.logg != nil {
			s.logg.Error(context.Background(),
				fmt.Sprintf("notification channel panicked: %v", r), nil)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithOrderID(ctx, order.ID.String())
	}

	if err := s.channel.Send(ctx, notify.PayloadFromOrder(order)); err != nil {
		s.metrics.IncNotificationFailed()
		if s.logg != nil {
			s.logg.Error(logCtx, "order notification failed", err)
		}
		return
	}

	if err := s.repo.MarkNotified(ctx, order.ID); err != nil && s.logg != nil {
		s.logg.Error(logCtx, "mark order notified", err)
	}
}

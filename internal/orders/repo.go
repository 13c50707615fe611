package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	"github.com/rdelacruz/freshmarket-backend/pkg/enums"
	pkgerrors "github.com/rdelacruz/freshmarket-backend/pkg/errors"
	"github.com/rdelacruz/freshmarket-backend/pkg/logger"
	"github.com/rdelacruz/freshmarket-backend/pkg/metrics"
	"github.com/rdelacruz/freshmarket-backend/pkg/pagination"
)

const (
	deleteRetryBackoff = 150 * time.Millisecond
	deleteMaxRetries   = 2
)

// deleteStrategies is the escalation order for removing an order. Each
// attempt is verified with a follow-up read before the delete is trusted.
var deleteStrategies = []DeleteStrategy{DeleteByPrimaryKey, DeleteByCompositeFilter}

type repository struct {
	store   Store
	feed    ChangeNotifier
	log     *logger.Logger
	metrics *metrics.OrderMetrics
}

// NewRepository wires the order repository over a Store. The feed and
// metrics are optional; pass nil to disable either.
func NewRepository(store Store, feed ChangeNotifier, log *logger.Logger, m *metrics.OrderMetrics) Repository {
	return &repository{store: store, feed: feed, log: log, metrics: m}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = enums.OrderStatusNew
	}

	created, err := r.store.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	r.metrics.IncCreated()
	if r.feed != nil {
		r.feed.OrderCreated(ctx, *created)
	}
	return created, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := r.store.Read(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read order")
	}
	return order, nil
}

func (r *repository) ListPaginated(ctx context.Context, params pagination.Params) (*Page, error) {
	params = params.Normalize()

	count, err := r.store.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}

	orders, err := r.store.List(ctx, params.PageSize, params.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	if orders == nil {
		orders = []models.Order{}
	}

	return &Page{
		Orders:     orders,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: count,
		TotalPages: pagination.TotalPages(count, params.PageSize),
	}, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", status))
	}

	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.Status == status {
		return order, nil
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order %s cannot move from %s to %s", id, order.Status, status))
	}

	if err := r.store.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	order.Status = status
	r.metrics.IncStatusChanged(status.String())
	if r.feed != nil {
		r.feed.OrderUpdated(ctx, *order)
	}
	return order, nil
}

func (r *repository) MarkNotified(ctx context.Context, id uuid.UUID) error {
	if err := r.store.SetNotified(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order notified")
	}
	return nil
}

// Delete removes the order and refuses to report success until a follow-up
// read confirms the row is gone. Each retry escalates to a broader match
// strategy before giving up.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	attempt := 0
	backoff := retry.WithMaxRetries(deleteMaxRetries, retry.NewConstant(deleteRetryBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		strategy := deleteStrategies[min(attempt, len(deleteStrategies)-1)]
		attempt++

		if err := r.store.Delete(ctx, order, strategy); err != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order"))
		}

		present, err := r.store.Exists(ctx, id)
		if err != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify order delete"))
		}
		if present {
			if r.log != nil {
				r.log.Warn(r.log.WithOrderID(ctx, id.String()),
					fmt.Sprintf("delete with strategy %s reported success but order is still present", strategy))
			}
			return retry.RetryableError(pkgerrors.New(pkgerrors.CodeVerification,
				"order still present after delete"))
		}
		return nil
	})
	if err != nil {
		r.metrics.IncDeleteVerifyFailed()
		var coded *pkgerrors.Error
		if errors.As(err, &coded) {
			return coded
		}
		return pkgerrors.Wrap(pkgerrors.CodeVerification, err, "order delete could not be verified")
	}

	r.metrics.IncDeleted()
	if r.feed != nil {
		r.feed.OrderDeleted(ctx, *order)
	}
	return nil
}

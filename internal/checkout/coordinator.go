// Package checkout commits a cart as one atomic sale: stock decrement, sequence
// increment, transaction record and activity entry all land together or not at all.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go-pos-inventory/internal/logging"
	"go-pos-inventory/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Store opens atomic units of work. Every write staged through Tx is applied
// only if fn returns nil; otherwise none of them are.
type Store interface {
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the read/stage surface available inside a transaction.
type Tx interface {
	// GetProduct returns nil, nil when the product does not exist.
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	// NextSequence returns the next value of the named sequence and stages its increment.
	NextSequence(ctx context.Context, name string) (int64, error)
	// AdjustStock applies a field-level increment: stock += delta, sold_count -= delta.
	AdjustStock(ctx context.Context, productID uint, delta int) error
	CreateTransaction(ctx context.Context, record *models.TransactionRecord) error
	CreateActivity(ctx context.Context, entry *models.ActivityLog) error
}

// Observer receives the outcome of every commit attempt.
type Observer interface {
	ObserveCheckout(outcome string, duration time.Duration)
}

const (
	OutcomeSuccess           = "success"
	OutcomeInvalid           = "invalid"
	OutcomeProductNotFound   = "product_not_found"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeFailed            = "failed"
)

type CartLine struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Actor struct {
	ID   uint
	Name string
}

type Request struct {
	Lines         []CartLine
	Total         decimal.Decimal
	CashAmount    decimal.Decimal
	ChangeAmount  decimal.Decimal
	PaymentMethod string
	Actor         Actor
}

type Result struct {
	TransactionNumber string
	Record            *models.TransactionRecord
}

type Coordinator struct {
	store      Store
	now        func() time.Time
	logger     logrus.FieldLogger
	observer   Observer
	terminalID string
}

type Option func(*Coordinator)

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

func WithObserver(observer Observer) Option {
	return func(c *Coordinator) { c.observer = observer }
}

func WithTerminalID(id string) Option {
	return func(c *Coordinator) { c.terminalID = id }
}

func NewCoordinator(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		now:    time.Now,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FormatTransactionNumber renders TRX-<year>-<counter>, the counter padded to at least 4 digits.
func FormatTransactionNumber(year int, seq int64) string {
	return fmt.Sprintf("TRX-%d-%04d", year, seq)
}

// Commit validates the cart and commits the sale atomically.
func (c *Coordinator) Commit(ctx context.Context, req Request) (*Result, error) {
	start := c.now()

	if err := validate(req); err != nil {
		c.observe(OutcomeInvalid, start)
		return nil, err
	}

	var record *models.TransactionRecord
	err := c.store.RunInTransaction(ctx, func(tx Tx) error {
		products, err := c.checkStock(ctx, tx, req.Lines)
		if err != nil {
			return err
		}

		seq, err := tx.NextSequence(ctx, models.TransactionCounter)
		if err != nil {
			return fmt.Errorf("next transaction number: %w", err)
		}
		number := FormatTransactionNumber(c.now().Year(), seq)

		for _, line := range req.Lines {
			if err := tx.AdjustStock(ctx, line.ProductID, -line.Quantity); err != nil {
				return fmt.Errorf("adjust stock for product %d: %w", line.ProductID, err)
			}
		}

		record = c.buildRecord(number, req, products)
		if err := tx.CreateTransaction(ctx, record); err != nil {
			return fmt.Errorf("create transaction record: %w", err)
		}

		entry := &models.ActivityLog{
			Type:      models.ActivitySale,
			Message:   saleSummary(record),
			ActorID:   req.Actor.ID,
			ActorName: req.Actor.Name,
		}
		if err := tx.CreateActivity(ctx, entry); err != nil {
			return fmt.Errorf("create activity entry: %w", err)
		}
		return nil
	})

	if err != nil {
		var productErr *ProductError
		if errors.As(err, &productErr) {
			outcome := OutcomeProductNotFound
			if errors.Is(productErr, ErrInsufficientStock) {
				outcome = OutcomeInsufficientStock
			}
			c.observe(outcome, start)
			c.logger.WithFields(logrus.Fields{
				"cashier_id": req.Actor.ID,
				"product":    productErr.ProductName,
				"reason":     outcome,
			}).Warn("Checkout rejected")
			return nil, productErr
		}

		c.observe(OutcomeFailed, start)
		c.logger.WithFields(logrus.Fields{
			"cashier_id": req.Actor.ID,
			"error":      err,
		}).Error("Checkout transaction failed")
		return nil, &TransactionError{Err: err}
	}

	c.observe(OutcomeSuccess, start)
	c.logger.WithFields(logrus.Fields{
		"transaction": record.Number,
		"cashier_id":  req.Actor.ID,
		"items":       len(record.Items),
		"total":       record.Total.StringFixed(2),
	}).Info("Checkout committed")

	return &Result{TransactionNumber: record.Number, Record: record}, nil
}

func validate(req Request) error {
	if len(req.Lines) == 0 {
		return ErrEmptyCart
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidQuantity, line.Name)
		}
	}
	return nil
}

// checkStock reads every product inside the transaction. Lines for the same
// product are summed so a split cart cannot oversell.
func (c *Coordinator) checkStock(ctx context.Context, tx Tx, lines []CartLine) (map[uint]*models.Product, error) {
	products := make(map[uint]*models.Product, len(lines))
	requested := make(map[uint]int, len(lines))

	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			var err error
			product, err = tx.GetProduct(ctx, line.ProductID)
			if err != nil {
				return nil, fmt.Errorf("read product %d: %w", line.ProductID, err)
			}
			if product == nil {
				return nil, &ProductError{Err: ErrProductNotFound, ProductID: line.ProductID, ProductName: line.Name}
			}
			products[line.ProductID] = product
		}

		// compare against what is left so huge quantities cannot wrap the sum
		already := requested[line.ProductID]
		if line.Quantity > product.Stock-already {
			total := already + line.Quantity
			if total < already {
				total = math.MaxInt
			}
			return nil, &ProductError{
				Err:         ErrInsufficientStock,
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   total,
				Available:   product.Stock,
			}
		}
		requested[line.ProductID] = already + line.Quantity
	}
	return products, nil
}

func (c *Coordinator) buildRecord(number string, req Request, products map[uint]*models.Product) *models.TransactionRecord {
	items := make([]models.TransactionItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		name := products[line.ProductID].Name
		items = append(items, models.TransactionItem{
			ProductID: line.ProductID,
			Name:      name,
			Quantity:  line.Quantity,
			Price:     line.Price,
			Subtotal:  line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	return &models.TransactionRecord{
		Number:        number,
		CashierID:     req.Actor.ID,
		CashierName:   req.Actor.Name,
		Total:         req.Total,
		PaymentMethod: req.PaymentMethod,
		CashAmount:    req.CashAmount,
		ChangeAmount:  req.ChangeAmount,
		TerminalID:    c.terminalID,
		Items:         items,
	}
}

func saleSummary(record *models.TransactionRecord) string {
	parts := make([]string, 0, len(record.Items))
	for _, item := range record.Items {
		parts = append(parts, fmt.Sprintf("%s x%d @ %s", item.Name, item.Quantity, item.Price.StringFixed(2)))
	}
	return fmt.Sprintf("Sale %s: %s. Total %s", record.Number, strings.Join(parts, ", "), record.Total.StringFixed(2))
}

func (c *Coordinator) observe(outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveCheckout(outcome, c.now().Sub(start))
	}
}

// Package ledger keeps the portfolio's cash, holdings and transaction log
// mutually consistent. Every mutation goes through Store.Apply, which runs as
// a single database transaction under an exclusive writer lock.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/lock"
	"papertrader/internal/logger"
	"papertrader/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStopNotTriggered is returned by Apply for an AtStop operation when the
// holding has no stop or the price is above it. Nothing is written.
var ErrStopNotTriggered = errors.New("stop loss not triggered")

// StopLossReason is the transaction reason recorded for stop-loss sells.
func StopLossReason(price, stop decimal.Decimal) string {
	return fmt.Sprintf("Stop loss triggered at $%s (stop $%s)", price.StringFixed(2), stop.StringFixed(2))
}

// Operation is a single buy or sell against the ledger.
type Operation struct {
	Side     models.TradeSide
	Symbol   string
	Quantity decimal.Decimal
	Price    decimal.Decimal

	// EntirePosition sells whatever quantity is held when the operation is
	// applied. Quantity is ignored.
	EntirePosition bool

	// AtStop makes an EntirePosition sell conditional on the holding's
	// stop price as stored when the operation is applied: it proceeds only
	// if Price is at or below that stop, otherwise Apply returns
	// ErrStopNotTriggered. Reason is replaced by StopLossReason.
	AtStop bool

	StopLoss    decimal.NullDecimal
	Reason      string
	QuoteSource string
	ExecutedAt  time.Time
}

// State is a point-in-time view of the ledger.
type State struct {
	Cash              decimal.Decimal
	InitialCash       decimal.Decimal
	Holdings          []models.Holding
	LastTransactionID uint
	TakenAt           time.Time
}

// Holding returns the position in symbol, if any.
func (s *State) Holding(symbol string) (*models.Holding, bool) {
	for i := range s.Holdings {
		if s.Holdings[i].Symbol == symbol {
			return &s.Holdings[i], true
		}
	}
	return nil, false
}

// Symbols lists the held symbols in ledger order.
func (s *State) Symbols() []string {
	out := make([]string, len(s.Holdings))
	for i, h := range s.Holdings {
		out[i] = h.Symbol
	}
	return out
}

// Result is the outcome of a successful Apply.
type Result struct {
	State       *State
	Transaction *models.Transaction
}

// Store is the transactional ledger.
type Store struct {
	db     *gorm.DB
	mu     sync.RWMutex
	locker lock.Locker
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLocker adds a cross-process lock taken around every Apply.
func WithLocker(l lock.Locker) Option {
	return func(s *Store) { s.locker = l }
}

// WithClock overrides the time source used for transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a ledger over db.
func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init funds the ledger with initialCash if it has not been funded yet.
// Calling it again leaves the existing balance untouched.
func (s *Store) Init(ctx context.Context, initialCash decimal.Decimal) (*models.CashBalance, error) {
	if initialCash.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Initial cash must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var cash models.CashBalance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&cash, models.CashBalanceID).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		amount := initialCash.Round(Scale)
		cash = models.CashBalance{ID: models.CashBalanceID, Amount: amount, InitialAmount: amount}
		if err := tx.Create(&cash).Error; err != nil {
			return err
		}
		logger.Named("ledger").Infow("Ledger funded", "initial_cash", amount.StringFixed(2))
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &cash, nil
}

// Apply executes op atomically. It fails with ErrInsufficientCash,
// ErrInsufficientHoldings or ErrHoldingNotFound without changing anything,
// and with ErrLedgerInconsistency if the stored state violates an invariant.
func (s *Store) Apply(ctx context.Context, op Operation) (*Result, error) {
	op, err := normalize(op)
	if err != nil {
		return nil, err
	}
	if op.ExecutedAt.IsZero() {
		op.ExecutedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("acquiring ledger lock: %w", err))
		}
		defer release()
	}

	var (
		txn   *models.Transaction
		state *State
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var applyErr error
		txn, applyErr = apply(tx, op)
		if applyErr != nil {
			return applyErr
		}
		state, applyErr = readState(tx)
		return applyErr
	})
	if errors.Is(err, ErrStopNotTriggered) {
		return nil, ErrStopNotTriggered
	}
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	state.TakenAt = s.now().UTC()
	return &Result{State: state, Transaction: txn}, nil
}

// Snapshot returns cash, holdings and the last transaction id as read at a
// single point. It never observes part of an in-flight Apply.
func (s *Store) Snapshot(ctx context.Context) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var state *State
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		state, err = readState(tx)
		return err
	}, snapshotTxOptions(s.db))
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	state.TakenAt = s.now().UTC()
	return state, nil
}

// snapshotTxOptions asks postgres for a repeatable-read snapshot so every
// statement in Snapshot sees the same commit. sqlite transactions are
// already serializable.
func snapshotTxOptions(db *gorm.DB) *sql.TxOptions {
	if db.Dialector.Name() == "postgres" {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return &sql.TxOptions{}
}

func normalize(op Operation) (Operation, error) {
	op.Symbol = strings.ToUpper(strings.TrimSpace(op.Symbol))
	if op.Symbol == "" {
		return op, apperrors.WithMessage(apperrors.ErrInvalidInput, "Symbol is required")
	}
	if op.Side != models.TradeSideBuy && op.Side != models.TradeSideSell {
		return op, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("Unknown trade side %q", op.Side))
	}
	if op.EntirePosition && op.Side != models.TradeSideSell {
		return op, apperrors.WithMessage(apperrors.ErrInvalidInput, "Only sells can close an entire position")
	}
	if op.AtStop && !op.EntirePosition {
		return op, apperrors.WithMessage(apperrors.ErrInvalidInput, "A stop-loss sell closes the entire position")
	}

	op.Price = op.Price.Round(Scale)
	if !op.Price.IsPositive() {
		return op, apperrors.WithMessage(apperrors.ErrInvalidInput, "Price must be greater than zero")
	}
	if !op.EntirePosition {
		op.Quantity = op.Quantity.Round(Scale)
		if !op.Quantity.IsPositive() {
			return op, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be greater than zero")
		}
	}
	if op.StopLoss.Valid {
		op.StopLoss.Decimal = op.StopLoss.Decimal.Round(Scale)
		if !op.StopLoss.Decimal.IsPositive() {
			return op, apperrors.WithMessage(apperrors.ErrInvalidInput, "Stop loss must be greater than zero")
		}
	}
	return op, nil
}

// apply performs op inside tx. Any returned error rolls the whole
// transaction back.
func apply(tx *gorm.DB, op Operation) (*models.Transaction, error) {
	cash, err := loadCash(tx)
	if err != nil {
		return nil, err
	}
	if err := checkCashChain(tx, cash); err != nil {
		return nil, err
	}

	holding, err := loadHolding(tx, op.Symbol)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		ExecutedAt:  op.ExecutedAt,
		Symbol:      op.Symbol,
		Side:        op.Side,
		Price:       op.Price,
		StopLoss:    op.StopLoss,
		Reason:      op.Reason,
		QuoteSource: op.QuoteSource,
	}

	var newCash decimal.Decimal
	switch op.Side {
	case models.TradeSideBuy:
		txn.Quantity = op.Quantity
		cost := op.Quantity.Mul(op.Price).Round(Scale)
		if cost.GreaterThan(cash.Amount) {
			return nil, apperrors.WithMessage(apperrors.ErrInsufficientCash, fmt.Sprintf(
				"Insufficient cash: need %s, have %s", cost.StringFixed(2), cash.Amount.StringFixed(2)))
		}
		newCash = cash.Amount.Sub(cost)

		if holding == nil {
			holding = &models.Holding{
				Symbol:      op.Symbol,
				Quantity:    op.Quantity,
				AverageCost: op.Price,
				StopLoss:    op.StopLoss,
			}
			if err := tx.Create(holding).Error; err != nil {
				return nil, err
			}
		} else {
			holding.AverageCost = RecomputeAverage(holding.Quantity, holding.AverageCost, op.Quantity, op.Price)
			holding.Quantity = holding.Quantity.Add(op.Quantity)
			if op.StopLoss.Valid {
				holding.StopLoss = op.StopLoss
			}
			if err := tx.Save(holding).Error; err != nil {
				return nil, err
			}
		}

	case models.TradeSideSell:
		if holding == nil {
			if op.EntirePosition {
				return nil, apperrors.WithMessage(apperrors.ErrHoldingNotFound, fmt.Sprintf("No holding for %s", op.Symbol))
			}
			return nil, apperrors.WithMessage(apperrors.ErrInsufficientHoldings, fmt.Sprintf(
				"Insufficient holdings: requested %s %s, hold 0", op.Quantity, op.Symbol))
		}
		if op.AtStop {
			if !holding.StopLoss.Valid || op.Price.GreaterThan(holding.StopLoss.Decimal) {
				return nil, ErrStopNotTriggered
			}
			txn.Reason = StopLossReason(op.Price, holding.StopLoss.Decimal)
		}
		if op.EntirePosition {
			op.Quantity = holding.Quantity
		}
		if op.Quantity.GreaterThan(holding.Quantity) {
			return nil, apperrors.WithMessage(apperrors.ErrInsufficientHoldings, fmt.Sprintf(
				"Insufficient holdings: requested %s %s, hold %s", op.Quantity, op.Symbol, holding.Quantity))
		}
		txn.Quantity = op.Quantity
		txn.RealizedPnL = decimal.NewNullDecimal(RealizedPnL(op.Quantity, op.Price, holding.AverageCost))
		newCash = cash.Amount.Add(op.Quantity.Mul(op.Price).Round(Scale))

		remaining := holding.Quantity.Sub(op.Quantity)
		switch {
		case remaining.IsNegative():
			return nil, inconsistency("holding quantity would go negative", "symbol", op.Symbol, "quantity", remaining.String())
		case remaining.IsZero():
			if err := tx.Delete(&models.Holding{}, "symbol = ?", op.Symbol).Error; err != nil {
				return nil, err
			}
		default:
			if err := tx.Model(&models.Holding{}).Where("symbol = ?", op.Symbol).
				Update("quantity", remaining).Error; err != nil {
				return nil, err
			}
		}
	}

	if newCash.IsNegative() {
		return nil, inconsistency("cash would go negative", "cash", newCash.String())
	}

	txn.CashAfter = newCash
	if err := tx.Model(&models.CashBalance{}).Where("id = ?", models.CashBalanceID).
		Update("amount", newCash).Error; err != nil {
		return nil, err
	}
	if err := tx.Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

// forUpdate row-locks what tx reads next on postgres, so writers in other
// processes queue behind this transaction even without the Redis locker.
// sqlite takes a database-wide write lock instead.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return tx
}

func loadCash(tx *gorm.DB) (*models.CashBalance, error) {
	var cash models.CashBalance
	err := forUpdate(tx).First(&cash, models.CashBalanceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrLedgerNotInitialized
	}
	if err != nil {
		return nil, err
	}
	if cash.Amount.IsNegative() {
		return nil, inconsistency("stored cash is negative", "cash", cash.Amount.String())
	}
	return &cash, nil
}

// checkCashChain verifies the stored balance matches the last transaction's
// resulting cash, or the initial funding when the log is empty.
func checkCashChain(tx *gorm.DB, cash *models.CashBalance) error {
	var last models.Transaction
	err := tx.Order("id DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if !cash.Amount.Equal(cash.InitialAmount) {
			return inconsistency("cash differs from initial funding with an empty log",
				"cash", cash.Amount.String(), "initial", cash.InitialAmount.String())
		}
		return nil
	}
	if err != nil {
		return err
	}
	if !last.CashAfter.Equal(cash.Amount) {
		return inconsistency("cash differs from last transaction",
			"cash", cash.Amount.String(), "cash_after", last.CashAfter.String(), "transaction_id", last.ID)
	}
	return nil
}

func loadHolding(tx *gorm.DB, symbol string) (*models.Holding, error) {
	var h models.Holding
	err := forUpdate(tx).Where("symbol = ?", symbol).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !h.Quantity.IsPositive() {
		return nil, inconsistency("stored holding has non-positive quantity", "symbol", symbol, "quantity", h.Quantity.String())
	}
	return &h, nil
}

func readState(tx *gorm.DB) (*State, error) {
	var cash models.CashBalance
	err := tx.First(&cash, models.CashBalanceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrLedgerNotInitialized
	}
	if err != nil {
		return nil, err
	}

	var holdings []models.Holding
	if err := tx.Order("symbol ASC").Find(&holdings).Error; err != nil {
		return nil, err
	}

	var lastID uint
	if err := tx.Model(&models.Transaction{}).Select("COALESCE(MAX(id), 0)").Scan(&lastID).Error; err != nil {
		return nil, err
	}

	return &State{
		Cash:              cash.Amount,
		InitialCash:       cash.InitialAmount,
		Holdings:          holdings,
		LastTransactionID: lastID,
	}, nil
}

// inconsistency logs and returns a ledger invariant violation.
func inconsistency(msg string, keysAndValues ...interface{}) error {
	logger.Named("ledger").Errorw("Ledger invariant violated: "+msg, keysAndValues...)
	return apperrors.WithMessage(apperrors.ErrLedgerInconsistency, "Ledger invariant violated: "+msg)
}

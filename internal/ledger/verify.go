package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/logger"
	"papertrader/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Report is the outcome of replaying the transaction log.
type Report struct {
	Transactions  int              `json:"transactions"`
	Cash          decimal.Decimal  `json:"cash"`
	Holdings      []models.Holding `json:"holdings"`
	Discrepancies []string         `json:"discrepancies,omitempty"`
}

// OK reports whether the replay matched the stored state.
func (r *Report) OK() bool { return len(r.Discrepancies) == 0 }

// Verify replays every transaction from the initial funding and compares
// the derived cash and holdings with what is stored. Any mismatch is logged
// and returned as ErrLedgerInconsistency alongside the report.
func (s *Store) Verify(ctx context.Context) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		state *State
		txns  []models.Transaction
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if state, err = readState(tx); err != nil {
			return err
		}
		return tx.Order("id ASC").Find(&txns).Error
	}, snapshotTxOptions(s.db))
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	report := Replay(state.InitialCash, txns)
	report.compare(state)

	if !report.OK() {
		log := logger.Named("ledger")
		for _, d := range report.Discrepancies {
			log.Errorw("Ledger verification failed", "discrepancy", d)
		}
		return report, apperrors.WithMessage(apperrors.ErrLedgerInconsistency,
			fmt.Sprintf("Ledger verification found %d discrepancies", len(report.Discrepancies)))
	}
	return report, nil
}

// Replay derives cash and holdings from a transaction log ordered by id.
// Discrepancies found within the log itself are recorded on the report.
func Replay(initialCash decimal.Decimal, txns []models.Transaction) *Report {
	report := &Report{Transactions: len(txns), Cash: initialCash}
	positions := make(map[string]*models.Holding)

	for _, t := range txns {
		amount := t.Quantity.Mul(t.Price).Round(Scale)
		h := positions[t.Symbol]

		switch t.Side {
		case models.TradeSideBuy:
			report.Cash = report.Cash.Sub(amount)
			if h == nil {
				h = &models.Holding{Symbol: t.Symbol}
				positions[t.Symbol] = h
			}
			h.AverageCost = RecomputeAverage(h.Quantity, h.AverageCost, t.Quantity, t.Price)
			h.Quantity = h.Quantity.Add(t.Quantity)
			if t.StopLoss.Valid {
				h.StopLoss = t.StopLoss
			}
		case models.TradeSideSell:
			if h == nil || t.Quantity.GreaterThan(h.Quantity) {
				report.addf("transaction %d sells %s %s without enough holdings", t.ID, t.Quantity, t.Symbol)
				continue
			}
			report.Cash = report.Cash.Add(amount)
			h.Quantity = h.Quantity.Sub(t.Quantity)
			if h.Quantity.IsZero() {
				delete(positions, t.Symbol)
			}
		default:
			report.addf("transaction %d has unknown side %q", t.ID, t.Side)
			continue
		}

		if report.Cash.IsNegative() {
			report.addf("transaction %d leaves cash negative (%s)", t.ID, report.Cash)
		}
		if !t.CashAfter.Equal(report.Cash) {
			report.addf("transaction %d records cash %s, replay gives %s", t.ID, t.CashAfter, report.Cash)
		}
	}

	report.Holdings = make([]models.Holding, 0, len(positions))
	for _, h := range positions {
		report.Holdings = append(report.Holdings, *h)
	}
	sort.Slice(report.Holdings, func(i, j int) bool { return report.Holdings[i].Symbol < report.Holdings[j].Symbol })
	return report
}

func (r *Report) compare(state *State) {
	if !r.Cash.Equal(state.Cash) {
		r.addf("stored cash %s, replay gives %s", state.Cash, r.Cash)
	}

	derived := make(map[string]models.Holding, len(r.Holdings))
	for _, h := range r.Holdings {
		derived[h.Symbol] = h
	}
	for _, stored := range state.Holdings {
		d, ok := derived[stored.Symbol]
		if !ok {
			r.addf("stored holding %s has no transaction history", stored.Symbol)
			continue
		}
		if !d.Quantity.Equal(stored.Quantity) {
			r.addf("holding %s quantity: stored %s, replay gives %s", stored.Symbol, stored.Quantity, d.Quantity)
		}
		if !d.AverageCost.Equal(stored.AverageCost) {
			r.addf("holding %s average cost: stored %s, replay gives %s", stored.Symbol, stored.AverageCost, d.AverageCost)
		}
		delete(derived, stored.Symbol)
	}
	for sym := range derived {
		r.addf("replay holds %s but no holding is stored", sym)
	}
}

func (r *Report) addf(format string, args ...interface{}) {
	r.Discrepancies = append(r.Discrepancies, fmt.Sprintf(format, args...))
}

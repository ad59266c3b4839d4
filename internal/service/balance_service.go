package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/metrics"
	"github.com/mmynk/grouppay/internal/models"
	"github.com/mmynk/grouppay/internal/storage"
)

// MemberBalance is one member's position in a group. Balance is positive
// when the member is owed money.
type MemberBalance struct {
	UserID    string          `json:"userId"`
	TotalPaid decimal.Decimal `json:"totalPaid"`
	TotalOwed decimal.Decimal `json:"totalOwed"`
	Balance   decimal.Decimal `json:"balance"`
}

// BalanceService reads group balances and derives settlements from them.
type BalanceService struct {
	store    storage.Store
	lock     groupLock
	notifier *NotificationService
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewBalanceService(store storage.Store, locker ledger.Locker, notifier *NotificationService, m *metrics.Metrics, logger *slog.Logger) *BalanceService {
	return &BalanceService{
		store:    store,
		lock:     groupLock{locker: locker, metrics: m},
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// GetBalances returns every member's balance sorted by user ID. Former
// members still appear while their balance is not zero.
func (s *BalanceService) GetBalances(ctx context.Context, groupID string) ([]MemberBalance, error) {
	s.logger.Info("GetBalances request received", "group_id", groupID)

	var out []MemberBalance
	err := s.lock.with(ctx, groupID, func(ctx context.Context) error {
		group, err := s.store.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		balances, err := ledger.BalancesOf(ctx, s.store, groupID)
		if err != nil {
			return err
		}
		expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
		if err != nil {
			return err
		}
		out = memberBalances(group.Members, balances, expenses)
		return nil
	})
	if err != nil {
		s.logger.Warn("GetBalances failed", "group_id", groupID, "error", err)
		return nil, err
	}
	return out, nil
}

// GetSettlements returns the payments that settle the group, in the order
// the solver produced them.
func (s *BalanceService) GetSettlements(ctx context.Context, groupID string) ([]ledger.Settlement, error) {
	s.logger.Info("GetSettlements request received", "group_id", groupID)

	var settlements []ledger.Settlement
	err := s.lock.with(ctx, groupID, func(ctx context.Context) error {
		if _, err := s.store.GetGroup(ctx, groupID); err != nil {
			return err
		}
		balances, err := ledger.BalancesOf(ctx, s.store, groupID)
		if err != nil {
			return err
		}
		settlements = ledger.Solve(balances)
		return nil
	})
	if err != nil {
		s.logger.Warn("GetSettlements failed", "group_id", groupID, "error", err)
		return nil, err
	}

	s.metrics.SettlementComputed(len(settlements))
	s.logger.Info("Settlements computed", "group_id", groupID, "count", len(settlements))
	return settlements, nil
}

// SendReminder notifies toUserID that fromUserID is waiting for a payment.
// Both must belong to the group.
func (s *BalanceService) SendReminder(ctx context.Context, groupID, fromUserID, toUserID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	for _, id := range []string{fromUserID, toUserID} {
		if !group.HasMember(id) {
			return ledger.Errorf(ledger.KindNonMember, "user %s is not a member of group %s", id, groupID)
		}
	}
	if fromUserID == toUserID {
		return ledger.Errorf(ledger.KindInvalidInput, "cannot remind yourself")
	}

	sender, err := s.store.GetUserByID(ctx, fromUserID)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("%s has sent you a payment reminder.", sender.Username)
	if err := s.notifier.Notify(ctx, toUserID, models.NotificationReminder, "Payment Reminder", message); err != nil {
		return err
	}
	s.logger.Info("Reminder sent", "group_id", groupID, "from", fromUserID, "to", toUserID)
	return nil
}

func memberBalances(members []string, balances ledger.Balances, expenses []*models.Expense) []MemberBalance {
	byUser := make(map[string]*MemberBalance, len(members))
	get := func(id string) *MemberBalance {
		mb, ok := byUser[id]
		if !ok {
			mb = &MemberBalance{UserID: id}
			byUser[id] = mb
		}
		return mb
	}

	for _, id := range members {
		get(id)
	}
	for id, v := range balances {
		if !v.IsZero() {
			get(id)
		}
	}
	for _, e := range expenses {
		if payer, ok := byUser[e.PayerID]; ok {
			payer.TotalPaid = payer.TotalPaid.Add(e.Amount)
		}
		for _, share := range e.Shares {
			if mb, ok := byUser[share.UserID]; ok {
				mb.TotalOwed = mb.TotalOwed.Add(share.Amount)
			}
		}
	}

	out := make([]MemberBalance, 0, len(byUser))
	for id, mb := range byUser {
		mb.Balance = balances[id]
		out = append(out, *mb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

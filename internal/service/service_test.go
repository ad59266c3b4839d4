package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/grouppay/internal/auth"
	"github.com/mmynk/grouppay/internal/events"
	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/metrics"
	"github.com/mmynk/grouppay/internal/models"
	"github.com/mmynk/grouppay/internal/storage/sqlstore"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) recorded() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type fixture struct {
	store     *sqlstore.Store
	auth      *AuthService
	groups    *GroupService
	expenses  *ExpenseService
	balances  *BalanceService
	notes     *NotificationService
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlstore.New(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	locker := ledger.NewLocalLocker()
	m := metrics.New()
	pub := &recordingPublisher{}
	notes := NewNotificationService(store, logger)
	creds := auth.NewPasswordAuthenticator(store, auth.WithCost(bcrypt.MinCost))

	return &fixture{
		store:     store,
		auth:      NewAuthService(creds, auth.NewJWTManager("test-secret", time.Hour), store, logger),
		groups:    NewGroupService(store, locker, notes, m, logger),
		expenses:  NewExpenseService(store, locker, pub, notes, m, logger),
		balances:  NewBalanceService(store, locker, notes, m, logger),
		notes:     notes,
		publisher: pub,
		metrics:   m,
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	s, err := f.auth.Register(context.Background(), name+"@example.com", name, "password-"+name)
	require.NoError(t, err)
	return s.User
}

// group creates a group owned by the first member and adds the rest.
func (f *fixture) group(t *testing.T, members ...*models.User) *models.Group {
	t.Helper()
	ctx := context.Background()
	g, err := f.groups.CreateGroup(ctx, members[0].ID, "Trip", "")
	require.NoError(t, err)
	for _, m := range members[1:] {
		g, err = f.groups.AddMember(ctx, g.ID, m.ID)
		require.NoError(t, err)
	}
	return g
}

func (f *fixture) balanceOf(t *testing.T, groupID string) map[string]decimal.Decimal {
	t.Helper()
	list, err := f.balances.GetBalances(context.Background(), groupID)
	require.NoError(t, err)
	out := make(map[string]decimal.Decimal, len(list))
	for _, mb := range list {
		out[mb.UserID] = mb.Balance
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !dec(want).Equal(got) {
		assert.Fail(t, "decimal mismatch", "want %s, got %s %v", want, got, msgAndArgs)
	}
}

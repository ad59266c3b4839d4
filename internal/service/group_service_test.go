package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/grouppay/internal/ledger"
)

func TestGroupService_CreateGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	g, err := f.groups.CreateGroup(ctx, alice.ID, "  Flat  ", "rent and bills")
	require.NoError(t, err)
	assert.Equal(t, "Flat", g.Name)
	assert.Equal(t, alice.ID, g.CreatedBy)

	got, err := f.groups.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, got.Members)

	_, err = f.groups.CreateGroup(ctx, alice.ID, " ", "")
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestGroupService_Membership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	g := f.group(t, alice)

	updated, err := f.groups.AddMember(ctx, g.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, updated.HasMember(bob.ID))

	_, err = f.groups.AddMember(ctx, g.ID, bob.ID)
	assert.ErrorIs(t, err, ledger.ErrDuplicateMember)
	_, err = f.groups.AddMember(ctx, g.ID, "nobody")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	groups, err := f.groups.ListUserGroups(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, g.ID, groups[0].ID)

	require.NoError(t, f.groups.RemoveMember(ctx, g.ID, bob.ID))
	assert.ErrorIs(t, f.groups.RemoveMember(ctx, g.ID, bob.ID), ledger.ErrNotFound)

	// A removed member can rejoin.
	_, err = f.groups.AddMember(ctx, g.ID, bob.ID)
	assert.NoError(t, err)
}

func TestGroupService_DeleteGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	g := f.group(t, alice, bob)

	_, err := f.expenses.CreateExpense(ctx, NewExpense{
		GroupID: g.ID, PayerID: alice.ID, Amount: dec("40"), Description: "Tickets", SplitKind: "EQUAL",
	})
	require.NoError(t, err)

	require.NoError(t, f.groups.DeleteGroup(ctx, g.ID))
	_, err = f.groups.GetGroup(ctx, g.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = f.expenses.ListExpenses(ctx, g.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.ErrorIs(t, f.groups.DeleteGroup(ctx, g.ID), ledger.ErrNotFound)

	groups, err := f.groups.ListUserGroups(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
)

// groupLedger is one consistent-enough snapshot of a group's history.
type groupLedger struct {
	group       *models.Group
	expenses    []*models.Expense
	settlements []*models.Settlement
}

// loadLedger fetches the group, its expenses and its settlements concurrently.
// The first failure cancels the other reads.
func loadLedger(ctx context.Context, store storage.LedgerReader, groupID string) (*groupLedger, error) {
	var l groupLedger
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		l.group, err = store.GetGroup(ctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		l.expenses, err = store.ListGroupExpenses(ctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		l.settlements, err = store.ListGroupSettlements(ctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &l, nil
}

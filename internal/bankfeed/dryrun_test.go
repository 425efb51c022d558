package bankfeed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/bankfeed-autopilot/internal/model"
)

type failingPage struct {
	rows []model.BankTransaction
}

func (p *failingPage) ReadForReview(context.Context, int) ([]model.BankTransaction, error) {
	return p.rows, nil
}

func (p *failingPage) Apply(context.Context, string, string, model.Action) error {
	return errors.New("must not be called")
}

func TestDryRun(t *testing.T) {
	inner := &failingPage{rows: []model.BankTransaction{{Description: "AMAZON MKTPLACE", RowHandle: "r1"}}}
	page := NewDryRun(inner, nil)

	txns, err := page.ReadForReview(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	require.NoError(t, page.Apply(context.Background(), "r1", "Office Supplies", model.ActionAdd))
	assert.Equal(t, []Applied{{Handle: "r1", Category: "Office Supplies", Action: model.ActionAdd}}, page.Applied())
}

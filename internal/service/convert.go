package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitsettle/internal/ledger"
	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/pkg/api"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	participants := g.Participants
	if participants == nil {
		participants = []string{}
	}
	return &api.Group{
		ID:           g.ID,
		Name:         g.Name,
		Description:  g.Description,
		CreatedBy:    g.CreatedBy,
		Participants: participants,
		CreatedAt:    g.CreatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	splits := make([]api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = api.Split{UserID: s.UserID, Amount: money(s.Amount)}
	}
	return &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      money(e.Amount),
		PaidBy:      e.PaidBy,
		Category:    e.Category,
		Date:        e.Date,
		Splits:      splits,
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:         s.ID,
		GroupID:    s.GroupID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     money(s.Amount),
		Method:     s.Method,
		Notes:      s.Notes,
		Date:       s.Date,
		CreatedBy:  s.CreatedBy,
	}
}

func toAPIPayment(from, to string, amount decimal.Decimal) *api.Payment {
	return &api.Payment{FromUserID: from, ToUserID: to, Amount: money(amount)}
}

func toAPITransfers(transfers []ledger.Transfer) []*api.Payment {
	out := make([]*api.Payment, len(transfers))
	for i, t := range transfers {
		out[i] = toAPIPayment(t.FromUserID, t.ToUserID, t.Amount)
	}
	return out
}

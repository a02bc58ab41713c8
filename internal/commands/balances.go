package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/splitsettle/internal/ledger"
	"github.com/mmynk/splitsettle/internal/models"
)

// ledgerFile is the YAML layout read by the balances command.
//
//	group:
//	  id: trip
//	  participants: [alice, bob, carol]
//	expenses:
//	  - description: Cabin
//	    amount: "90"
//	    paid_by: alice
//	    split_equally: [alice, bob, carol]
//	  - description: Dinner
//	    amount: "55"
//	    paid_by: bob
//	    items:
//	      - {description: Steak, amount: "30", assigned_to: [bob]}
//	      - {description: Pasta, amount: "20", assigned_to: [alice, carol]}
//	settlements:
//	  - from: bob
//	    to: alice
//	    amount: "30"
//	    method: cash
type ledgerFile struct {
	Group struct {
		ID           string   `yaml:"id"`
		Name         string   `yaml:"name"`
		Participants []string `yaml:"participants"`
	} `yaml:"group"`
	Expenses []struct {
		ID           string   `yaml:"id"`
		Description  string   `yaml:"description"`
		Amount       string   `yaml:"amount"`
		PaidBy       string   `yaml:"paid_by"`
		SplitEqually []string `yaml:"split_equally"`
		Splits       []struct {
			User   string `yaml:"user"`
			Amount string `yaml:"amount"`
		} `yaml:"splits"`
		Items []struct {
			Description string   `yaml:"description"`
			Amount      string   `yaml:"amount"`
			AssignedTo  []string `yaml:"assigned_to"`
		} `yaml:"items"`
	} `yaml:"expenses"`
	Settlements []struct {
		ID     string `yaml:"id"`
		From   string `yaml:"from"`
		To     string `yaml:"to"`
		Amount string `yaml:"amount"`
		Method string `yaml:"method"`
	} `yaml:"settlements"`
}

func newBalancesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "balances <ledger.yaml>",
		Short: "Compute balances and a settle-up plan from a ledger file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading ledger: %w", err)
			}
			group, expenses, settlements, err := parseLedger(data)
			if err != nil {
				return err
			}

			sheet, err := ledger.ComputeBalances(group, expenses, settlements)
			if err != nil {
				return err
			}
			transfers := ledger.SimplifyDebts(sheet, group.Participants)

			if asJSON {
				return writeBalancesJSON(cmd.OutOrStdout(), sheet, transfers)
			}
			return writeBalances(cmd.OutOrStdout(), group, sheet, transfers)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

// parseLedger decodes a ledger file into models, validating every record.
func parseLedger(data []byte) (*models.Group, []*models.Expense, []*models.Settlement, error) {
	var f ledgerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, nil, fmt.Errorf("parsing ledger: %w", err)
	}

	group := &models.Group{ID: f.Group.ID, Name: f.Group.Name, Participants: f.Group.Participants}
	if group.ID == "" {
		group.ID = "ledger"
	}

	expenses := make([]*models.Expense, 0, len(f.Expenses))
	for i, fe := range f.Expenses {
		e := &models.Expense{
			ID:          fe.ID,
			GroupID:     group.ID,
			Description: fe.Description,
			PaidBy:      fe.PaidBy,
		}
		if e.ID == "" {
			e.ID = fmt.Sprintf("#%d", i+1)
		}
		amount, err := ledger.ParseAmount(fe.Amount)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		e.Amount = amount

		switch {
		case len(fe.Splits) > 0:
			for _, s := range fe.Splits {
				share, err := ledger.ParseAmount(s.Amount)
				if err != nil {
					return nil, nil, nil, fmt.Errorf("expense %s: split for %s: %w", e.ID, s.User, err)
				}
				e.Splits = append(e.Splits, models.Split{UserID: s.User, Amount: share})
			}
		case len(fe.Items) > 0:
			items := make([]ledger.Item, len(fe.Items))
			for j, it := range fe.Items {
				price, err := ledger.ParseAmount(it.Amount)
				if err != nil {
					return nil, nil, nil, fmt.Errorf("expense %s: item %s: %w", e.ID, it.Description, err)
				}
				items[j] = ledger.Item{Description: it.Description, Amount: price, AssignedTo: it.AssignedTo}
			}
			if e.Splits, err = ledger.ItemizedSplits(items, amount, group.Participants); err != nil {
				return nil, nil, nil, fmt.Errorf("expense %s: %w", e.ID, err)
			}
		default:
			among := fe.SplitEqually
			if len(among) == 0 {
				among = group.Participants
			}
			if e.Splits, err = ledger.EqualSplits(amount, among); err != nil {
				return nil, nil, nil, fmt.Errorf("expense %s: %w", e.ID, err)
			}
		}
		if err := ledger.ValidateExpense(e); err != nil {
			return nil, nil, nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		expenses = append(expenses, e)
	}

	settlements := make([]*models.Settlement, 0, len(f.Settlements))
	for i, fs := range f.Settlements {
		s := &models.Settlement{
			ID:         fs.ID,
			GroupID:    group.ID,
			FromUserID: fs.From,
			ToUserID:   fs.To,
			Method:     fs.Method,
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("#%d", i+1)
		}
		if s.Method == "" {
			s.Method = "unspecified"
		}
		amount, err := ledger.ParseAmount(fs.Amount)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("settlement %s: %w", s.ID, err)
		}
		s.Amount = amount
		if err := ledger.ValidateSettlement(s); err != nil {
			return nil, nil, nil, fmt.Errorf("settlement %s: %w", s.ID, err)
		}
		settlements = append(settlements, s)
	}

	return group, expenses, settlements, nil
}

func writeBalances(w io.Writer, group *models.Group, sheet ledger.BalanceSheet, transfers []ledger.Transfer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PARTICIPANT\tBALANCE")
	for _, id := range sheet.Members(group.Participants) {
		fmt.Fprintf(tw, "%s\t%s\n", id, sheet.Get(id).StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(transfers) == 0 {
		_, err := fmt.Fprintln(w, "\nAll settled up.")
		return err
	}
	fmt.Fprintln(w, "\nSettle up:")
	for _, t := range transfers {
		fmt.Fprintf(w, "  %s pays %s %s\n", t.FromUserID, t.ToUserID, t.Amount.StringFixed(2))
	}
	return nil
}

type balancesOutput struct {
	Balances  ledger.BalanceSheet `json:"balances"`
	Transfers []transferOutput    `json:"transfers"`
}

type transferOutput struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func writeBalancesJSON(w io.Writer, sheet ledger.BalanceSheet, transfers []ledger.Transfer) error {
	out := balancesOutput{Balances: sheet, Transfers: make([]transferOutput, len(transfers))}
	for i, t := range transfers {
		out.Transfers[i] = transferOutput{From: t.FromUserID, To: t.ToUserID, Amount: t.Amount.StringFixed(2)}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

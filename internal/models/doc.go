// Package models defines the core domain records for splitsettle.
//
// # Records
//
//   - User: a registered account with a Role
//   - Group: a set of participants who share expenses
//   - Expense: a purchase paid by one participant and divided via Splits
//   - Settlement: a real-world payment between two participants
//
// # Design Principles
//
// 1. **Decimal money**: every amount is a decimal.Decimal, never float64
// 2. **IDs, not pointers**: relationships reference IDs (UUID strings)
// 3. **Read-only for the ledger**: the balance engine never mutates these records
package models

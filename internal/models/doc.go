// Package models defines the core domain models for Splitbook.
//
// # Models
//
//   - User: registered account, identified by email
//   - Group: a named set of members that share expenses
//   - Invitation: a pending request for a user to join a group
//   - Expense: a payment made by one member on behalf of several
//   - DebtEntry: a single directional debt derived from an expense
//   - Money: fixed-point amount in minor units
//
// # Design principles
//
//  1. Relationships use ID strings, never pointers, to avoid circular references.
//  2. Amounts are integer minor units; floating point never touches money.
//  3. Expenses and debt entries are append-only facts. Corrections happen by
//     voiding and reversing, not by editing amounts in place.
package models

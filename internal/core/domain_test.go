package core

import (
	"testing"
	"time"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -100}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestNewEntryValidate(t *testing.T) {
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	good := NewEntry{
		Type:        TypeExpense,
		Account:     "Wspólne",
		Category:    "zakupy",
		Amount:      Money{Cents: 4000},
		Description: "groceries",
		Date:        day,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		e    NewEntry
	}{
		{"bad type", NewEntry{Type: "refund", Account: "a", Amount: Money{Cents: 1}, Description: "d", Date: day}},
		{"empty account", NewEntry{Type: TypeIncome, Account: " ", Amount: Money{Cents: 1}, Description: "d", Date: day}},
		{"zero amount", NewEntry{Type: TypeIncome, Account: "a", Amount: Money{Cents: 0}, Description: "d", Date: day}},
		{"zero date", NewEntry{Type: TypeIncome, Account: "a", Amount: Money{Cents: 1}, Description: "d"}},
		{"empty description", NewEntry{Type: TypeIncome, Account: "a", Amount: Money{Cents: 1}, Description: "  ", Date: day}},
		{"transfer without destination", NewEntry{Type: TypeTransfer, Account: "a", Amount: Money{Cents: 1}, Description: "d", Date: day}},
		{"transfer to itself", NewEntry{Type: TypeTransfer, Account: "a", ToAccount: "A", Amount: Money{Cents: 1}, Description: "d", Date: day}},
		{"bad balance option", NewEntry{Type: TypeExpense, Account: "a", Amount: Money{Cents: 1}, Description: "d", Date: day, BalanceOption: "maybe"}},
	}
	for _, tc := range cases {
		if err := tc.e.Validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestEntrySignedEffect(t *testing.T) {
	parent := int64(7)
	cases := []struct {
		name string
		e    Entry
		want int64
	}{
		{"income", Entry{Type: TypeIncome, Amount: Money{Cents: 500}}, 500},
		{"expense", Entry{Type: TypeExpense, Amount: Money{Cents: 500}}, -500},
		{"transfer out", Entry{Type: TypeTransfer, Direction: DirectionOut, Amount: Money{Cents: 500}}, -500},
		{"transfer in", Entry{Type: TypeTransfer, Direction: DirectionIn, Amount: Money{Cents: 500}}, 500},
		{"derived income", Entry{Type: TypeIncome, Amount: Money{Cents: 500}, ParentEntryID: &parent}, 0},
	}
	for _, tc := range cases {
		if got := tc.e.SignedEffect(); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

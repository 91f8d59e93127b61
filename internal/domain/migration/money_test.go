package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		currency string
		want     MoneyAmount
		wantErr  error
	}{
		{
			name:     "valid uppercase",
			amount:   999,
			currency: "USD",
			want:     MoneyAmount{Amount: 999, Currency: "USD"},
		},
		{
			name:     "lowercase normalized",
			amount:   999,
			currency: "usd",
			want:     MoneyAmount{Amount: 999, Currency: "USD"},
		},
		{
			name:     "zero amount",
			amount:   0,
			currency: "USD",
			wantErr:  ErrNonPositiveAmount,
		},
		{
			name:     "negative amount",
			amount:   -100,
			currency: "USD",
			wantErr:  ErrNonPositiveAmount,
		},
		{
			name:     "unknown currency",
			amount:   100,
			currency: "XXX_NOT_A_CODE",
			wantErr:  ErrInvalidCurrency,
		},
		{
			name:     "empty currency",
			amount:   100,
			currency: "",
			wantErr:  ErrInvalidCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMoneyAmount(tt.amount, tt.currency)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinorUnitsFromDecimal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "two decimals", input: "19.99", want: 1999},
		{name: "whole number", input: "10", want: 1000},
		{name: "rounds half up", input: "10.005", want: 1001},
		{name: "rounds down", input: "10.004", want: 1000},
		{name: "whitespace trimmed", input: " 5.50 ", want: 550},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-3.50", wantErr: true},
		{name: "not a number", input: "free", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MinorUnitsFromDecimal(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoneyAmountMajor(t *testing.T) {
	m := MoneyAmount{Amount: 1999, Currency: "USD"}
	assert.Equal(t, "19.99", m.Major())
	assert.Equal(t, "1999 USD", m.String())
}

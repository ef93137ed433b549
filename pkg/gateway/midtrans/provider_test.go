package midtrans

import (
	"context"
	"testing"

	"subshare-be/pkg/gateway"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayoutKey(t *testing.T) {
	tests := []struct {
		key     string
		bank    string
		account string
		name    string
		wantErr bool
	}{
		{key: "bca:1234567890", bank: "bca", account: "1234567890", name: "1234567890"},
		{key: "bni:0099:Jane Doe", bank: "bni", account: "0099", name: "Jane Doe"},
		{key: "1234567890", wantErr: true},
		{key: ":123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			bank, account, name, err := parsePayoutKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.bank, bank)
			assert.Equal(t, tt.account, account)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestWholeAmount(t *testing.T) {
	tests := []struct {
		amount  string
		want    int64
		wantErr bool
	}{
		{amount: "15000", want: 15000},
		{amount: "15000.00", want: 15000},
		{amount: "13.98", wantErr: true},
		{amount: "0", wantErr: true},
		{amount: "-100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := wholeAmount(decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRefundRejectsFractionalAmountBeforeCallingMidtrans(t *testing.T) {
	p := NewProvider("server-key", "iris-key", false)

	_, err := p.Refund(context.Background(), gateway.RefundRequest{
		Reference:      "order-1",
		Amount:         decimal.RequireFromString("13.98"),
		IdempotencyKey: "refund-1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fractional part")
}

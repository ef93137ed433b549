package factory

import (
	"fmt"

	"subshare-be/pkg/gateway"
	"subshare-be/pkg/gateway/fake"
	"subshare-be/pkg/gateway/midtrans"
	"subshare-be/pkg/gateway/stripe"
)

type Options struct {
	MidtransServerKey  string
	MidtransIrisKey    string
	MidtransProduction bool
	StripeSecretKey    string
	StripeCurrency     string
}

func NewProvider(providerType string, opts Options) (gateway.Provider, error) {
	switch providerType {
	case "midtrans":
		if opts.MidtransServerKey == "" {
			return nil, fmt.Errorf("midtrans provider requires a server key")
		}
		return midtrans.NewProvider(opts.MidtransServerKey, opts.MidtransIrisKey, opts.MidtransProduction), nil
	case "stripe":
		if opts.StripeSecretKey == "" {
			return nil, fmt.Errorf("stripe provider requires a secret key")
		}
		currency := opts.StripeCurrency
		if currency == "" {
			currency = "brl"
		}
		return stripe.NewProvider(opts.StripeSecretKey, currency), nil
	case "", "fake":
		return fake.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported gateway provider: %s", providerType)
	}
}

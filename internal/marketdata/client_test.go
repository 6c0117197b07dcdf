package marketdata_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cleardesk/cleardesk/internal/marketdata"
)

func TestQuoteClientParsesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbols"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"quoteResponse":{"result":[{
			"symbol":"AAPL","currency":"USD","quoteType":"EQUITY",
			"fullExchangeName":"NasdaqGS","longName":"Apple Inc.",
			"regularMarketPrice":150.25,"regularMarketPreviousClose":149.8
		}],"error":null}}`))
	}))
	defer srv.Close()

	client := marketdata.NewQuoteClient(srv.URL, time.Second, zap.NewNop())
	q, err := client.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, "EQUITY", q.QuoteType)
	assert.Equal(t, "NasdaqGS", q.Exchange)
	assert.Equal(t, "Apple Inc.", q.LongName)
	assert.Equal(t, 150.25, q.Price)
	assert.Equal(t, 149.8, q.PreviousClose)
}

func TestQuoteClientEmptyResultIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	client := marketdata.NewQuoteClient(srv.URL, time.Second, zap.NewNop())
	q, err := client.Lookup(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.Equal(t, "ZZZZ", q.Symbol)
	assert.Empty(t, q.Currency)
}

func TestQuoteClientUpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := marketdata.NewQuoteClient(srv.URL, time.Second, zap.NewNop())
	_, err := client.Lookup(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestRateClientConvertsThroughProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/GBP", r.URL.Path)
		w.Write([]byte(`{"base":"GBP","rates":{"USD":1.25}}`))
	}))
	defer srv.Close()

	client := marketdata.NewRateClient(srv.URL, time.Second, zap.NewNop())
	usd, rate, err := client.ConvertToUSD(context.Background(), decimal.NewFromInt(100), "GBP")
	require.NoError(t, err)
	assert.Equal(t, "1.25", rate.String())
	assert.Equal(t, "125", usd.String())
}

func TestRateClientUSDIsIdentity(t *testing.T) {
	client := marketdata.NewRateClient("http://unused.invalid", time.Second, zap.NewNop())
	usd, rate, err := client.ConvertToUSD(context.Background(), decimal.NewFromInt(42), "USD")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	assert.True(t, usd.Equal(decimal.NewFromInt(42)))
}

func TestRateClientFallsBackWhenProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := marketdata.NewRateClient(srv.URL, time.Second, zap.NewNop())
	_, rate, err := client.ConvertToUSD(context.Background(), decimal.NewFromInt(100), "HKD")
	require.NoError(t, err)
	assert.Equal(t, "0.128", rate.String())

	// Unknown currencies fall back to parity
	usd, rate, err := client.ConvertToUSD(context.Background(), decimal.NewFromInt(100), "XXX")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	assert.True(t, usd.Equal(decimal.NewFromInt(100)))
}

func TestIsISINFormat(t *testing.T) {
	assert.True(t, marketdata.IsISINFormat("US1234567890"))
	assert.True(t, marketdata.IsISINFormat("DE000BAY0017"))
	assert.False(t, marketdata.IsISINFormat("AAPL"))
	assert.False(t, marketdata.IsISINFormat("US123456789"))   // 11 chars
	assert.False(t, marketdata.IsISINFormat("US12345678901")) // 13 chars
	assert.False(t, marketdata.IsISINFormat("1S1234567890"))  // digit prefix
	assert.False(t, marketdata.IsISINFormat("US123456789X"))  // letter check digit
}

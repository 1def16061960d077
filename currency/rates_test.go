package currency

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcognition/models"
)

func ratesServer(t *testing.T, hits *int32, rates string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/EUR", r.URL.Path)
		fmt.Fprintf(w, `{"result":"success","rates":%s}`, rates)
	}))
}

func TestRateBaseIdentityNeverFetches(t *testing.T) {
	var hits int32
	server := ratesServer(t, &hits, `{"USD":1.1}`)
	defer server.Close()

	rc := NewRateCache("EUR", server.URL, time.Second)

	rate, err := rc.Rate(context.Background(), "EUR")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestRateFetchesOnceUnderConcurrency(t *testing.T) {
	var hits int32
	server := ratesServer(t, &hits, `{"USD":1.1,"GBP":0.85}`)
	defer server.Close()

	rc := NewRateCache("EUR", server.URL, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rc.Rate(context.Background(), "USD")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRateMissingCode(t *testing.T) {
	var hits int32
	server := ratesServer(t, &hits, `{"USD":1.1}`)
	defer server.Close()

	rc := NewRateCache("EUR", server.URL, time.Second)

	_, err := rc.Rate(context.Background(), "JPY")
	assert.ErrorIs(t, err, models.ErrMissingRate)
}

func TestConvert(t *testing.T) {
	var hits int32
	server := ratesServer(t, &hits, `{"USD":1.25,"GBP":0.8}`)
	defer server.Close()

	rc := NewRateCache("EUR", server.URL, time.Second)

	// 10 USD at 1.25 USD per EUR is 8 EUR.
	got, err := rc.Convert(context.Background(), decimal.NewFromInt(10), "USD")
	require.NoError(t, err)
	assert.Equal(t, "8.00", got.StringFixed(2))

	// 20 GBP at 0.8 GBP per EUR is 25 EUR.
	got, err = rc.Convert(context.Background(), decimal.NewFromInt(20), "GBP")
	require.NoError(t, err)
	assert.Equal(t, "25.00", got.StringFixed(2))

	// Identity conversion, still rounded to cents.
	got, err = rc.Convert(context.Background(), decimal.RequireFromString("12.345"), "EUR")
	require.NoError(t, err)
	assert.Equal(t, "12.35", got.StringFixed(2))
}

func TestRateProviderDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rc := NewRateCache("EUR", server.URL, time.Second)

	_, err := rc.Rate(context.Background(), "USD")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrMissingRate)
}

func TestRefreshReplacesTable(t *testing.T) {
	var table atomic.Value
	table.Store(`{"USD":2.0}`)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"result":"success","rates":%s}`, table.Load().(string))
	}))
	defer server.Close()

	rc := NewRateCache("EUR", server.URL, time.Second)

	rate, err := rc.Rate(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, "2", rate.String())

	table.Store(`{"USD":4.0}`)
	require.NoError(t, rc.Refresh(context.Background()))

	rate, err = rc.Rate(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, "4", rate.String())
}

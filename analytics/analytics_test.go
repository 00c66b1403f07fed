package analytics_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-storefront/analytics"
	"github.com/jrsteele09/go-storefront/analytics/analyticsfakes"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func purchase(correlationID string) analytics.Event {
	return analytics.Event{
		Name:          analytics.EventPurchase,
		CorrelationID: correlationID,
		Value:         decimal.RequireFromString("220.50"),
		Currency:      "BDT",
		ProductID:     "7",
		PixelID:       "px-1",
	}
}

func TestDeduper(t *testing.T) {
	ctx := context.Background()
	rec := analyticsfakes.NewRecorder()
	d, err := analytics.NewDeduper(rec)
	require.NoError(t, err)

	require.NoError(t, d.Emit(ctx, purchase("c-1")))
	require.NoError(t, d.Emit(ctx, purchase("c-1")))
	require.NoError(t, d.Emit(ctx, purchase("c-2")))
	require.Len(t, rec.Events(), 2)
	require.True(t, d.Seen("c-1"))
	require.False(t, d.Seen("c-3"))

	t.Run("failed delivery is not repeated", func(t *testing.T) {
		rec.Fail(errors.New("down"))
		require.Error(t, d.Emit(ctx, purchase("c-4")))
		require.NoError(t, d.Emit(ctx, purchase("c-4")))
		require.Len(t, rec.Events(), 3)
	})

	t.Run("correlation id required", func(t *testing.T) {
		require.Error(t, d.Emit(ctx, purchase("")))
	})
}

func TestDeduper_Limit(t *testing.T) {
	ctx := context.Background()
	rec := analyticsfakes.NewRecorder()
	d, err := analytics.NewDeduper(rec, analytics.WithLimit(2))
	require.NoError(t, err)

	for _, id := range []string{"c-1", "c-2", "c-3"} {
		require.NoError(t, d.Emit(ctx, purchase(id)))
	}
	require.False(t, d.Seen("c-1"), "oldest id forgotten")
	require.True(t, d.Seen("c-2"))
	require.True(t, d.Seen("c-3"))

	require.NoError(t, d.Emit(ctx, purchase("c-3")))
	require.Len(t, rec.Events(), 3)
}

func TestNewDeduper_RequiresSink(t *testing.T) {
	_, err := analytics.NewDeduper(nil)
	require.Error(t, err)
}

func TestLogSink(t *testing.T) {
	require.NoError(t, analytics.NewLogSink(zerolog.Nop()).Emit(context.Background(), purchase("c-1")))
}

func TestPixelSink_Emit(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events_received":1}`))
	}))
	defer srv.Close()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sink, err := analytics.NewPixelSink(
		analytics.PixelConfig{BaseURL: srv.URL, APIVersion: "v18.0", AccessToken: "secret"},
		analytics.WithHTTPClient(srv.Client()),
		analytics.WithNowTime(func() time.Time { return at }),
	)
	require.NoError(t, err)

	event := purchase("c-1")
	event.CustomerPhone = "01712345678"
	require.NoError(t, sink.Emit(context.Background(), event))

	require.Equal(t, "/v18.0/px-1/events", gotPath)
	require.Equal(t, "Bearer secret", gotAuth)
	data := gjson.GetBytes(gotBody, "data.0")
	require.Equal(t, "Purchase", data.Get("event_name").String())
	require.Equal(t, "c-1", data.Get("event_id").String())
	require.Equal(t, at.Unix(), data.Get("event_time").Int())
	require.Equal(t, "website", data.Get("action_source").String())
	require.Equal(t, 220.5, data.Get("custom_data.value").Float())
	require.Equal(t, "BDT", data.Get("custom_data.currency").String())
	require.Equal(t, "7", data.Get("custom_data.content_ids.0").String())
	require.Equal(t, int64(1), data.Get("custom_data.num_items").Int())
	require.Len(t, data.Get("user_data.ph.0").String(), 64)
	require.False(t, data.Get("user_data.em").Exists())
}

func TestPixelSink_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))
	defer srv.Close()

	_, err := analytics.NewPixelSink(analytics.PixelConfig{})
	require.Error(t, err)

	sink, err := analytics.NewPixelSink(analytics.PixelConfig{BaseURL: srv.URL, AccessToken: "bad"}, analytics.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	err = sink.Emit(context.Background(), purchase("c-1"))
	require.ErrorContains(t, err, "Invalid OAuth access token")

	noPixel := purchase("c-2")
	noPixel.PixelID = ""
	require.Error(t, sink.Emit(context.Background(), noPixel))
}

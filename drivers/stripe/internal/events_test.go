package driver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/singer-io/tap-stripe/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chargeEvent(id string, created int64, eventType, objectID string) types.Record {
	return types.Record{
		"id":      id,
		"type":    eventType,
		"created": float64(created),
		"data": map[string]any{
			"object": map[string]any{
				"object": "charge",
				"id":     objectID,
				"status": "succeeded",
			},
		},
	}
}

func TestEventUpdatesEmitLatestSnapshotPerObject(t *testing.T) {
	records, _ := captureEmits(t)

	now := baseEpoch + 3600
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "charge.*", r.URL.Query().Get("type"))
		// newest-first, the upstream feed order
		fmt.Fprint(w, listResponse(
			chargeEvent("evt_3", baseEpoch+300, "charge.updated", "ch_1"),
			chargeEvent("evt_2", baseEpoch+200, "charge.captured", "ch_1"),
			chargeEvent("evt_1", baseEpoch+100, "charge.updated", "ch_2"),
		))
	}))
	defer server.Close()

	ctx := newSyncContext(server, baseEpoch, now, "charges")
	require.NoError(t, ctx.syncEventUpdates(streamDefsByName["charges"]))

	// one record per object, carrying the latest event only
	require.Len(t, *records, 2)
	first := (*records)[0].record
	assert.Equal(t, "ch_1", first["id"])
	assert.Equal(t, int64(baseEpoch+300), first["updated"])
	assert.Equal(t, "charge.updated", first["updated_by_event_type"])
	assert.Equal(t, "ch_2", (*records)[1].record["id"])

	bookmark, found := ctx.State.Get(types.EventsStream("charges"), types.UpdatesBookmarkKey)
	require.True(t, found)
	assert.Equal(t, now, bookmark)
}

func TestEventUpdatesClampToRetentionWindow(t *testing.T) {
	captureEmits(t)

	var firstQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if firstQuery == "" {
			firstQuery = r.URL.Query().Get("created[gte]")
		}
		fmt.Fprint(w, listResponse())
	}))
	defer server.Close()

	// start predates retention by a year
	start := baseEpoch - 365*24*60*60
	ctx := newSyncContext(server, start, baseEpoch, "charges")
	require.NoError(t, ctx.syncEventUpdates(streamDefsByName["charges"]))

	assert.Equal(t, strconv.FormatInt(baseEpoch-DefaultEventsRetentionSeconds, 10), firstQuery)

	bookmark, _ := ctx.State.Get(types.EventsStream("charges"), types.UpdatesBookmarkKey)
	assert.Equal(t, baseEpoch, bookmark)
}

func TestEventUpdatesDedupAcrossWindows(t *testing.T) {
	records, _ := captureEmits(t)

	windowSeconds := int64(7 * 24 * 60 * 60)
	now := baseEpoch + 2*windowSeconds
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("created[gte]") == strconv.FormatInt(baseEpoch, 10) {
			fmt.Fprint(w, listResponse(chargeEvent("evt_1", baseEpoch+100, "charge.updated", "ch_1")))
			return
		}
		fmt.Fprint(w, listResponse(chargeEvent("evt_2", baseEpoch+windowSeconds+100, "charge.captured", "ch_1")))
	}))
	defer server.Close()

	ctx := newSyncContext(server, baseEpoch, now, "charges")
	require.NoError(t, ctx.syncEventUpdates(streamDefsByName["charges"]))

	// the later window's event supersedes; both windows emit because the walk
	// is oldest-first, but each emission is strictly newer
	require.Len(t, *records, 2)
	assert.Equal(t, int64(baseEpoch+100), (*records)[0].record["updated"])
	assert.Equal(t, int64(baseEpoch+windowSeconds+100), (*records)[1].record["updated"])
}

func TestApplyEventRoutesPayoutShapedTransfers(t *testing.T) {
	records, _ := captureEmits(t)

	ctx := newSyncContext(nil, baseEpoch, baseEpoch+1000, "payouts")

	event := types.Record{
		"id":      "evt_1",
		"type":    "payout.updated",
		"created": float64(baseEpoch + 100),
		"data": map[string]any{
			"object": map[string]any{
				"object": "transfer",
				"id":     "po_1",
				"amount": float64(5000),
			},
		},
	}

	require.NoError(t, ctx.applyEvent(streamDefsByName["payouts"], event, map[string]int64{}))
	require.Len(t, *records, 1)
	assert.Equal(t, "payouts", (*records)[0].stream)
	assert.Equal(t, "po_1", (*records)[0].record["id"])
}

func TestApplyEventSkipsUnmatchedAndUnselected(t *testing.T) {
	records, _ := captureEmits(t)

	ctx := newSyncContext(nil, baseEpoch, baseEpoch+1000, "payouts")

	// type glob mismatch: a transfer event arriving during the payout scan
	event := types.Record{
		"id":      "evt_1",
		"type":    "transfer.updated",
		"created": float64(baseEpoch + 100),
		"data": map[string]any{
			"object": map[string]any{"object": "transfer", "id": "tr_1"},
		},
	}
	require.NoError(t, ctx.applyEvent(streamDefsByName["payouts"], event, map[string]int64{}))
	assert.Empty(t, *records)

	// matched glob but target stream not selected
	require.NoError(t, ctx.applyEvent(streamDefsByName["transfers"], event, map[string]int64{}))
	assert.Empty(t, *records)
}

func TestApplyEventStaleSnapshotIsDropped(t *testing.T) {
	records, _ := captureEmits(t)

	ctx := newSyncContext(nil, baseEpoch, baseEpoch+1000, "charges")

	latestSeen := map[string]int64{"ch_1": baseEpoch + 500}
	event := chargeEvent("evt_1", baseEpoch+400, "charge.updated", "ch_1")

	require.NoError(t, ctx.applyEvent(streamDefsByName["charges"], event, latestSeen))
	assert.Empty(t, *records)
	assert.Equal(t, int64(baseEpoch+500), latestSeen["ch_1"])
}

func TestApplyEventRefreshesChildrenWithoutMovingBookmark(t *testing.T) {
	records, _ := captureEmits(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices/in_1", r.URL.Path)
		fmt.Fprint(w, `{
			"id": "in_1",
			"object": "invoice",
			"date": `+strconv.FormatInt(baseEpoch+50, 10)+`,
			"lines": {"object":"list","has_more":false,"data":[{"id":"il_1","unique_id":"il_stable_1"}]}
		}`)
	}))
	defer server.Close()

	ctx := newSyncContext(server, baseEpoch, baseEpoch+1000, "invoices", "invoice_line_items")
	ctx.State.Set("invoice_line_items", "date", baseEpoch+40)

	event := types.Record{
		"id":      "evt_1",
		"type":    "invoice.payment_succeeded",
		"created": float64(baseEpoch + 100),
		"data": map[string]any{
			"object": map[string]any{"object": "invoice", "id": "in_1"},
		},
	}

	require.NoError(t, ctx.applyEvent(streamDefsByName["invoices"], event, map[string]int64{}))

	byStream := map[string][]types.Record{}
	for _, emitted := range *records {
		byStream[emitted.stream] = append(byStream[emitted.stream], emitted.record)
	}

	require.Len(t, byStream["invoices"], 1)
	assert.Equal(t, int64(baseEpoch+100), byStream["invoices"][0]["updated"])
	assert.Equal(t, "invoice.payment_succeeded", byStream["invoices"][0]["updated_by_event_type"])

	require.Len(t, byStream["invoice_line_items"], 1)
	child := byStream["invoice_line_items"][0]
	assert.Equal(t, "il_stable_1", child["id"])
	assert.Equal(t, "in_1", child["invoice"])
	assert.Equal(t, int64(baseEpoch+50), child["updated"], "children inherit the parent's replication timestamp")

	// the event path never advances the child bookmark
	bookmark, found := ctx.State.Get("invoice_line_items", "date")
	require.True(t, found)
	assert.Equal(t, int64(baseEpoch+40), bookmark)
}

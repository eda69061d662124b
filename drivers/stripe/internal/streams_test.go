package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryFilterKey(t *testing.T) {
	assert.Equal(t, "created", streamDefsByName["charges"].QueryFilterKey())

	// invoice-derived streams bookmark on date but filter on created
	assert.Equal(t, "created", streamDefsByName["invoices"].QueryFilterKey())
	assert.Equal(t, "date", streamDefsByName["invoices"].ReplicationKey)
	assert.Equal(t, "created", streamDefsByName["invoice_items"].QueryFilterKey())
}

func TestAutomaticFields(t *testing.T) {
	assert.ElementsMatch(t, []string{"id", "created", "updated"}, streamDefsByName["charges"].AutomaticFields())

	// child streams have no replication key of their own
	assert.ElementsMatch(t, []string{"id", "invoice", "updated"}, streamDefsByName["invoice_line_items"].AutomaticFields())
}

func TestStreamForEvent(t *testing.T) {
	stream, found := streamForEvent("charge", "charge.succeeded")
	require.True(t, found)
	assert.Equal(t, "charges", stream)

	// transfer-shaped objects on payout events route to payouts
	stream, found = streamForEvent("transfer", "payout.updated")
	require.True(t, found)
	assert.Equal(t, "payouts", stream)

	stream, found = streamForEvent("transfer", "transfer.updated")
	require.True(t, found)
	assert.Equal(t, "transfers", stream)

	_, found = streamForEvent("checkout_session", "checkout.session.completed")
	assert.False(t, found)
}

func TestEveryChildHasAParentDef(t *testing.T) {
	for name, child := range childDefs {
		def, found := streamDefsByName[name]
		require.True(t, found, name)
		assert.Equal(t, child.Parent, def.Parent, name)
		assert.Equal(t, name, streamDefsByName[child.Parent].Child, name)
		require.NotNil(t, child.ListPath, name)
	}
}

func TestEventStreamsHaveTypeGlobs(t *testing.T) {
	for _, def := range streamDefs {
		if def.Parent != "" || def.Name == "events" || def.Name == "balance_transactions" {
			assert.Empty(t, def.EventType, def.Name)
			continue
		}
		assert.NotEmpty(t, def.EventType, def.Name)
	}
}

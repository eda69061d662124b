package driver

import (
	"strings"

	"github.com/singer-io/tap-stripe/constants"
)

// DefaultEventsRetentionSeconds bounds how far back the change-log feed can be
// queried; the upstream hard-deletes events older than this.
const DefaultEventsRetentionSeconds int64 = 30 * 24 * 60 * 60

// StreamDef describes one resource stream: where to list it, how it is
// bookmarked and which change-log events update it.
type StreamDef struct {
	Name           string
	Path           string
	ReplicationKey string // bookmark field; empty for join-table child streams
	FilterKey      string // upstream query filter field when it differs from the bookmark field
	KeyProperties  []string
	Parent         string // owning stream for child streams
	Child          string // dependent child stream, if any
	EventType      string // change-log type glob for the update pass
	Lookback       bool   // eventually consistent near now; start is rewound by the lookback window
}

// ChildDef describes how a child stream's records are derived from an
// already-fetched parent object.
type ChildDef struct {
	Name          string
	Parent        string
	EmbedKey      string // sub-list field on the parent; empty when the child has its own filtered listing
	ListPath      func(parentID string) string
	FilterParam   string // query param carrying the parent id, when ListPath is not parent-scoped
	ParentFK      string // foreign-key field stamped onto every child record
	UniqueIDField string // API-provided stable id preferred over the native id field
	RefField      string // relationship pointer backfilled from the id when the stable id is absent
	KeyProperties []string
}

// QueryFilterKey is the field used in outgoing list filters; invoice-derived
// streams bookmark on "date" but must filter on "created".
func (d StreamDef) QueryFilterKey() string {
	if d.FilterKey != "" {
		return d.FilterKey
	}
	return d.ReplicationKey
}

// AutomaticFields are always emitted regardless of field selection.
func (d StreamDef) AutomaticFields() []string {
	fields := append([]string{}, d.KeyProperties...)
	if d.ReplicationKey != "" {
		fields = append(fields, d.ReplicationKey)
	}
	return append(fields, constants.UpdatedField)
}

// streamDefs lists every stream in catalog order.
var streamDefs = []StreamDef{
	{Name: "charges", Path: "/charges", ReplicationKey: "created", KeyProperties: []string{"id"}, EventType: "charge.*"},
	{Name: "events", Path: "/events", ReplicationKey: "created", KeyProperties: []string{"id"}, Lookback: true},
	{Name: "customers", Path: "/customers", ReplicationKey: "created", KeyProperties: []string{"id"}, EventType: "customer.*"},
	{Name: "plans", Path: "/plans", ReplicationKey: "created", KeyProperties: []string{"id"}, EventType: "plan.*"},
	{Name: "invoices", Path: "/invoices", ReplicationKey: "date", FilterKey: "created", KeyProperties: []string{"id"}, Child: "invoice_line_items", EventType: "invoice.*"},
	{Name: "invoice_items", Path: "/invoiceitems", ReplicationKey: "date", FilterKey: "created", KeyProperties: []string{"id"}, EventType: "invoiceitem.*"},
	{Name: "invoice_line_items", Path: "", KeyProperties: []string{"id", "invoice"}, Parent: "invoices"},
	{Name: "transfers", Path: "/transfers", ReplicationKey: "created", KeyProperties: []string{"id"}, EventType: "transfer.*"},
	{Name: "coupons", Path: "/coupons", ReplicationKey: "created", KeyProperties: []string{"id"}, EventType: "coupon.*"},
	{Name: "subscriptions", Path: "/subscriptions", ReplicationKey: "created", KeyProperties: []string{"id"}, Child: "subscription_items", EventType: "customer.subscription.*"},
	{Name: "subscription_items", Path: "/subscription_items", KeyProperties: []string{"id"}, Parent: "subscriptions"},
	{Name: "balance_transactions", Path: "/balance_transactions", ReplicationKey: "created", KeyProperties: []string{"id"}, Lookback: true},
	{Name: "payouts", Path: "/payouts", ReplicationKey: "created", KeyProperties: []string{"id"}, Child: "payout_transactions", EventType: "payout.*"},
	{Name: "payout_transactions", Path: "/balance_transactions", KeyProperties: []string{"id"}, Parent: "payouts"},
	{Name: "disputes", Path: "/disputes", ReplicationKey: "created", KeyProperties: []string{"id"}, EventType: "charge.dispute.*"},
	{Name: "products", Path: "/products", ReplicationKey: "created", KeyProperties: []string{"id"}, EventType: "product.*"},
	{Name: "payment_intents", Path: "/payment_intents", ReplicationKey: "created", KeyProperties: []string{"id"}, EventType: "payment_intent.*"},
}

var childDefs = map[string]ChildDef{
	"subscription_items": {
		Name:          "subscription_items",
		Parent:        "subscriptions",
		EmbedKey:      "items",
		ListPath:      func(string) string { return "/subscription_items" },
		FilterParam:   "subscription",
		ParentFK:      "subscription",
		KeyProperties: []string{"id"},
	},
	"invoice_line_items": {
		Name:          "invoice_line_items",
		Parent:        "invoices",
		EmbedKey:      "lines",
		ListPath:      func(parentID string) string { return "/invoices/" + parentID + "/lines" },
		ParentFK:      "invoice",
		UniqueIDField: "unique_id",
		RefField:      "subscription",
		KeyProperties: []string{"id", "invoice"},
	},
	"payout_transactions": {
		Name:          "payout_transactions",
		Parent:        "payouts",
		ListPath:      func(string) string { return "/balance_transactions" },
		FilterParam:   "payout",
		ParentFK:      "payout",
		KeyProperties: []string{"id"},
	},
}

var streamDefsByName = func() map[string]StreamDef {
	defs := map[string]StreamDef{}
	for _, def := range streamDefs {
		defs[def.Name] = def
	}
	return defs
}()

// Parent streams whose normalized form replaces embedded child objects with
// id arrays; the dedicated child stream carries the full records.
var foreignKeyFields = map[string]string{
	"customers":     "subscriptions",
	"subscriptions": "items",
	"invoices":      "lines",
}

// eventObjectToStream maps the change-log snapshot's object type back to a
// stream name.
var eventObjectToStream = map[string]string{
	"charge":         "charges",
	"customer":       "customers",
	"plan":           "plans",
	"invoice":        "invoices",
	"invoiceitem":    "invoice_items",
	"transfer":       "transfers",
	"coupon":         "coupons",
	"subscription":   "subscriptions",
	"product":        "products",
	"dispute":        "disputes",
	"payout":         "payouts",
	"payment_intent": "payment_intents",
}

// streamForEvent routes an event to its target stream. Payout events carry
// transfer-shaped objects, so the object type alone is ambiguous; the event
// type prefix disambiguates.
func streamForEvent(objectType, eventType string) (string, bool) {
	if objectType == "transfer" && strings.HasPrefix(eventType, "payout") {
		return "payouts", true
	}
	stream, found := eventObjectToStream[objectType]
	return stream, found
}

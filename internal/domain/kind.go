package domain

import "fmt"

// EntityKind identifies one synced record kind. Each kind maps to exactly
// one local table and one vendor natural-key column.
type EntityKind string

const (
	KindClientGroups  EntityKind = "client_groups"
	KindContacts      EntityKind = "contacts"
	KindOrganizations EntityKind = "organizations"
	KindWorkItems     EntityKind = "work_items"
	KindWorkItemTasks EntityKind = "work_item_tasks"
	KindWorkItemNotes EntityKind = "work_item_notes"
	KindInvoices      EntityKind = "invoices"
	KindAppointments  EntityKind = "appointments"
)

// SyncOrder is the canonical execution order for a multi-kind run.
// Client entities come before work items so that the reconciliation pass
// can resolve soft foreign keys in the same run; the order is a quality
// improvement only, reconciliation is repeatable.
var SyncOrder = []EntityKind{
	KindClientGroups,
	KindContacts,
	KindOrganizations,
	KindWorkItems,
	KindWorkItemTasks,
	KindWorkItemNotes,
	KindInvoices,
	KindAppointments,
}

// kindMeta maps each kind to its table and natural-key column.
var kindMeta = map[EntityKind]struct {
	table      string
	naturalKey string
}{
	KindClientGroups:  {"client_groups", "karbon_group_key"},
	KindContacts:      {"contacts", "karbon_contact_key"},
	KindOrganizations: {"organizations", "karbon_org_key"},
	KindWorkItems:     {"work_items", "karbon_work_item_key"},
	KindWorkItemTasks: {"work_item_tasks", "karbon_task_key"},
	KindWorkItemNotes: {"work_item_notes", "karbon_note_key"},
	KindInvoices:      {"invoices", "karbon_invoice_key"},
	KindAppointments:  {"appointments", "calendly_event_uri"},
}

// Table returns the local table name for the kind.
func (k EntityKind) Table() string { return kindMeta[k].table }

// NaturalKey returns the upsert conflict column for the kind.
func (k EntityKind) NaturalKey() string { return kindMeta[k].naturalKey }

// Valid reports whether the kind is one of the known entity kinds.
func (k EntityKind) Valid() bool {
	_, ok := kindMeta[k]
	return ok
}

// ParseKind converts a string to an EntityKind.
func ParseKind(s string) (EntityKind, error) {
	k := EntityKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

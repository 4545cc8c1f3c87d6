// Package mapper converts raw vendor records into normalized local records.
// Every function here is a pure transform: no I/O, deterministic for a
// given input and clock value, and never panics on missing nested fields —
// each access degrades to null, and the output record always carries every
// target column (possibly nil) so the upsert sink can treat all mapped
// records uniformly.
package mapper

import (
	"strings"
	"time"

	"github.com/mottahub/sync-backend/internal/adapter/calendly"
	"github.com/mottahub/sync-backend/internal/adapter/karbon"
	"github.com/mottahub/sync-backend/internal/domain"
)

// MapContact normalizes a raw Karbon contact.
func MapContact(c karbon.Contact, now time.Time) domain.Record {
	fields := map[string]any{
		"karbon_contact_key": c.ContactKey,
		"first_name":         val(c.FirstName),
		"middle_name":        val(c.MiddleName),
		"last_name":          val(c.LastName),
		"preferred_name":     val(c.PreferredName),
		"salutation":         val(c.Salutation),
		"full_name":          contactFullName(c),
		"contact_type":       val(c.ContactType),
		"restriction_level":  val(c.RestrictionLevel),
		"client_owner":       val(c.ClientOwner),
		"client_manager":     val(c.ClientManager),
		"client_group_key":   val(c.ClientGroupKey),
		"client_group_name":  val(c.ClientGroupName),
		"vendor_modified_at": timeVal(c.LastModifiedDateTime),
		"last_synced_at":     now.UTC(),
	}
	for k, v := range cardContactFields(c.EmailAddress, c.PhoneNumber, c.BusinessCards) {
		fields[k] = v
	}

	return domain.Record{
		Kind:       domain.KindContacts,
		Key:        c.ContactKey,
		ModifiedAt: c.LastModifiedDateTime,
		Fields:     fields,
	}
}

// contactFullName prefers the preferred name, then "First Last", else nil.
func contactFullName(c karbon.Contact) any {
	if c.PreferredName != nil && strings.TrimSpace(*c.PreferredName) != "" {
		return *c.PreferredName
	}
	parts := make([]string, 0, 2)
	if c.FirstName != nil && *c.FirstName != "" {
		parts = append(parts, *c.FirstName)
	}
	if c.LastName != nil && *c.LastName != "" {
		parts = append(parts, *c.LastName)
	}
	if len(parts) == 0 {
		return nil
	}
	return strings.Join(parts, " ")
}

// MapOrganization normalizes a raw Karbon organization, classifying its
// registration numbers into typed columns.
func MapOrganization(o karbon.Organization, now time.Time) domain.Record {
	fields := map[string]any{
		"karbon_org_key":     o.OrganizationKey,
		"full_name":          val(o.FullName),
		"entity_type":        val(o.EntityType),
		"contact_type":       val(o.ContactType),
		"restriction_level":  val(o.RestrictionLevel),
		"client_owner":       val(o.ClientOwner),
		"client_manager":     val(o.ClientManager),
		"client_group_key":   val(o.ClientGroupKey),
		"client_group_name":  val(o.ClientGroupName),
		"vendor_modified_at": timeVal(o.LastModifiedDateTime),
		"last_synced_at":     now.UTC(),
	}
	for k, v := range cardContactFields(nil, nil, o.BusinessCards) {
		fields[k] = v
	}
	for k, v := range classifyRegistrations(o.RegistrationNumbers) {
		fields[k] = v
	}

	return domain.Record{
		Kind:       domain.KindOrganizations,
		Key:        o.OrganizationKey,
		ModifiedAt: o.LastModifiedDateTime,
		Fields:     fields,
	}
}

// MapClientGroup normalizes a raw Karbon client group.
func MapClientGroup(g karbon.ClientGroup, now time.Time) domain.Record {
	return domain.Record{
		Kind:       domain.KindClientGroups,
		Key:        g.ClientGroupKey,
		ModifiedAt: g.LastModifiedDateTime,
		Fields: map[string]any{
			"karbon_group_key":   g.ClientGroupKey,
			"full_name":          val(g.FullName),
			"group_type":         val(g.Type),
			"client_owner":       val(g.ClientOwner),
			"member_count":       val(g.MemberCount),
			"vendor_modified_at": timeVal(g.LastModifiedDateTime),
			"last_synced_at":     now.UTC(),
		},
	}
}

// MapWorkItem normalizes a raw Karbon work item, deriving tax_year and
// service_line. The contact_id/organization_id soft foreign keys are NOT
// mapped columns — they are owned by the reconciliation pass, so repeated
// upserts never clobber an established link.
func MapWorkItem(wi karbon.WorkItem, now time.Time) domain.Record {
	return domain.Record{
		Kind:       domain.KindWorkItems,
		Key:        wi.WorkItemKey,
		ModifiedAt: wi.LastModifiedDateTime,
		Fields: map[string]any{
			"karbon_work_item_key": wi.WorkItemKey,
			"title":                val(wi.Title),
			"work_type":            val(wi.WorkType),
			"primary_status":       val(wi.PrimaryStatus),
			"secondary_status":     val(wi.SecondaryStatus),
			"workflow_step":        val(wi.WorkflowStep),
			"client_type":          val(wi.ClientType),
			"karbon_client_key":    val(wi.ClientKey),
			"client_name":          val(wi.ClientName),
			"client_group_key":     val(wi.ClientGroupKey),
			"client_group_name":    val(wi.ClientGroupName),
			"assignee_name":        val(wi.AssigneeName),
			"assignee_email":       val(wi.AssigneeEmailAddress),
			"start_date":           timeVal(wi.StartDate),
			"due_date":             timeVal(wi.DueDate),
			"deadline_date":        timeVal(wi.DeadlineDate),
			"completed_date":       timeVal(wi.CompletedDate),
			"tax_year":             val(deriveTaxYear(wi)),
			"service_line":         val(classifyServiceLine(wi.Title, wi.WorkType)),
			"fee_type":             val(wi.FeeType),
			"budget":               val(wi.Budget),
			"description":          val(wi.Description),
			"vendor_modified_at":   timeVal(wi.LastModifiedDateTime),
			"last_synced_at":       now.UTC(),
		},
	}
}

// MapTask normalizes a raw work item task.
func MapTask(t karbon.Task, now time.Time) domain.Record {
	return domain.Record{
		Kind:       domain.KindWorkItemTasks,
		Key:        t.TaskKey,
		ModifiedAt: t.LastModifiedDateTime,
		Fields: map[string]any{
			"karbon_task_key":      t.TaskKey,
			"karbon_work_item_key": t.WorkItemKey,
			"title":                val(t.Title),
			"status":               val(t.Status),
			"assignee_email":       val(t.AssigneeEmailAddress),
			"due_date":             timeVal(t.DueDate),
			"vendor_modified_at":   timeVal(t.LastModifiedDateTime),
			"last_synced_at":       now.UTC(),
		},
	}
}

// MapNote normalizes a raw work item note.
func MapNote(n karbon.Note, now time.Time) domain.Record {
	return domain.Record{
		Kind:       domain.KindWorkItemNotes,
		Key:        n.NoteKey,
		ModifiedAt: n.LastModifiedDateTime,
		Fields: map[string]any{
			"karbon_note_key":      n.NoteKey,
			"karbon_work_item_key": n.WorkItemKey,
			"subject":              val(n.Subject),
			"body":                 val(n.Body),
			"author_email":         val(n.AuthorEmailAddress),
			"created_at_vendor":    timeVal(n.CreatedDateTime),
			"vendor_modified_at":   timeVal(n.LastModifiedDateTime),
			"last_synced_at":       now.UTC(),
		},
	}
}

// MapInvoice normalizes a raw Karbon invoice.
func MapInvoice(inv karbon.Invoice, now time.Time) domain.Record {
	return domain.Record{
		Kind:       domain.KindInvoices,
		Key:        inv.InvoiceKey,
		ModifiedAt: inv.LastModifiedDateTime,
		Fields: map[string]any{
			"karbon_invoice_key": inv.InvoiceKey,
			"invoice_number":     val(inv.InvoiceNumber),
			"karbon_client_key":  val(inv.ClientKey),
			"client_type":        val(inv.ClientType),
			"client_name":        val(inv.ClientName),
			"status":             val(inv.InvoiceStatus),
			"amount":             val(inv.Amount),
			"tax_amount":         val(inv.TaxAmount),
			"invoice_date":       timeVal(inv.InvoiceDate),
			"due_date":           timeVal(inv.DueDate),
			"paid_date":          timeVal(inv.PaidDate),
			"vendor_modified_at": timeVal(inv.LastModifiedDateTime),
			"last_synced_at":     now.UTC(),
		},
	}
}

// MapAppointment normalizes a Calendly scheduled event with its first
// invitee (nil when the invitee fetch failed or the event has none).
// Both the bulk sync and the webhook path go through this one function,
// so the two ingestion paths cannot diverge.
func MapAppointment(e calendly.Event, invitee *calendly.Invitee, now time.Time) domain.Record {
	fields := map[string]any{
		"calendly_event_uri": e.URI,
		"name":               val(e.Name),
		"status":             val(e.Status),
		"start_time":         timeVal(e.StartTime),
		"end_time":           timeVal(e.EndTime),
		"location_type":      nil,
		"location":           nil,
		"invitee_name":       nil,
		"invitee_email":      nil,
		"cancel_reason":      nil,
		"vendor_modified_at": timeVal(e.UpdatedAt),
		"last_synced_at":     now.UTC(),
	}
	if e.Location != nil {
		fields["location_type"] = val(e.Location.Type)
		fields["location"] = val(e.Location.Location)
	}
	if invitee != nil {
		fields["invitee_name"] = val(invitee.Name)
		fields["invitee_email"] = val(invitee.Email)
		if invitee.Cancellation != nil {
			fields["cancel_reason"] = val(invitee.Cancellation.Reason)
		}
	}

	return domain.Record{
		Kind:       domain.KindAppointments,
		Key:        e.URI,
		ModifiedAt: e.UpdatedAt,
		Fields:     fields,
	}
}

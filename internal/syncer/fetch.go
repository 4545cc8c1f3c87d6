package syncer

import (
	"context"
	"fmt"

	"github.com/mottahub/sync-backend/internal/adapter/calendly"
	"github.com/mottahub/sync-backend/internal/adapter/karbon"
	"github.com/mottahub/sync-backend/internal/domain"
	"github.com/mottahub/sync-backend/internal/mapper"
)

// listOpts is the collection fetch configuration. Fetches are unfiltered;
// incremental narrowing happens locally against the cursor. Nested
// collections the mapper reads must be expanded explicitly.
func listOpts(expand string) karbon.ListOptions {
	return karbon.ListOptions{Expand: expand}
}

// fetchKind pulls the raw vendor records for one kind and maps them. The
// returned messages are non-fatal per-record problems (failed sub-fetches,
// missing invitees); the error means the whole fetch failed.
func (s *Syncer) fetchKind(ctx context.Context, kind domain.EntityKind, st *runState) ([]domain.Record, []string, error) {
	now := s.now()

	switch kind {
	case domain.KindClientGroups:
		groups, err := s.karbon.FetchClientGroups(ctx, listOpts(""))
		if err != nil {
			return nil, nil, err
		}
		records := make([]domain.Record, len(groups))
		for i, g := range groups {
			records[i] = mapper.MapClientGroup(g, now)
		}
		return records, nil, nil

	case domain.KindContacts:
		contacts, err := s.karbon.FetchContacts(ctx, listOpts("BusinessCards"))
		if err != nil {
			return nil, nil, err
		}
		records := make([]domain.Record, len(contacts))
		for i, c := range contacts {
			records[i] = mapper.MapContact(c, now)
		}
		return records, nil, nil

	case domain.KindOrganizations:
		orgs, err := s.karbon.FetchOrganizations(ctx, listOpts("BusinessCards,RegistrationNumbers"))
		if err != nil {
			return nil, nil, err
		}
		records := make([]domain.Record, len(orgs))
		for i, o := range orgs {
			records[i] = mapper.MapOrganization(o, now)
		}
		return records, nil, nil

	case domain.KindWorkItems:
		items, err := s.karbon.FetchWorkItems(ctx, listOpts(""))
		if err != nil {
			return nil, nil, err
		}
		records := make([]domain.Record, len(items))
		keys := make([]string, len(items))
		for i, wi := range items {
			records[i] = mapper.MapWorkItem(wi, now)
			keys[i] = wi.WorkItemKey
		}
		st.workItemKeys = keys
		return records, nil, nil

	case domain.KindWorkItemTasks:
		keys, err := s.parentWorkItemKeys(ctx, st)
		if err != nil {
			return nil, nil, err
		}
		sub, err := s.karbon.FetchWorkItemTasks(ctx, keys)
		if err != nil {
			return nil, nil, err
		}
		var records []domain.Record
		for _, tasks := range sub.ByWorkItem {
			for _, t := range tasks {
				records = append(records, mapper.MapTask(t, now))
			}
		}
		return records, sub.Errors, nil

	case domain.KindWorkItemNotes:
		keys, err := s.parentWorkItemKeys(ctx, st)
		if err != nil {
			return nil, nil, err
		}
		sub, err := s.karbon.FetchWorkItemNotes(ctx, keys)
		if err != nil {
			return nil, nil, err
		}
		var records []domain.Record
		for _, notes := range sub.ByWorkItem {
			for _, n := range notes {
				records = append(records, mapper.MapNote(n, now))
			}
		}
		return records, sub.Errors, nil

	case domain.KindInvoices:
		invoices, err := s.karbon.FetchInvoices(ctx, listOpts(""))
		if err != nil {
			return nil, nil, err
		}
		records := make([]domain.Record, len(invoices))
		for i, inv := range invoices {
			records[i] = mapper.MapInvoice(inv, now)
		}
		return records, nil, nil

	case domain.KindAppointments:
		return s.fetchAppointments(ctx)

	default:
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
}

// parentWorkItemKeys returns the work item keys to sub-fetch under. A run
// that just synced work items reuses the fetched keys; otherwise the stored
// ones are used.
func (s *Syncer) parentWorkItemKeys(ctx context.Context, st *runState) ([]string, error) {
	if st.workItemKeys != nil {
		return st.workItemKeys, nil
	}
	keys, err := s.store.WorkItemKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load work item keys: %w", err)
	}
	return keys, nil
}

// fetchAppointments pulls Calendly scheduled events with their first
// invitee. A failed invitee fetch degrades that one appointment, not the
// batch.
func (s *Syncer) fetchAppointments(ctx context.Context) ([]domain.Record, []string, error) {
	now := s.now()

	events, err := s.calendly.FetchScheduledEvents(ctx)
	if err != nil {
		return nil, nil, err
	}

	records := make([]domain.Record, 0, len(events))
	var msgs []string
	for _, e := range events {
		invitees, err := s.calendly.FetchInvitees(ctx, e.URI)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("invitees %s: %v", e.URI, err))
			records = append(records, mapper.MapAppointment(e, nil, now))
			continue
		}
		var first *calendly.Invitee
		if len(invitees) > 0 {
			first = &invitees[0]
		}
		records = append(records, mapper.MapAppointment(e, first, now))
	}
	return records, msgs, nil
}

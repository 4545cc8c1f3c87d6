package mapper

import (
	"strings"
	"time"

	"github.com/mottahub/sync-backend/internal/adapter/karbon"
)

// resolve tries each extractor in order and returns the first non-nil,
// non-empty value. This makes the field resolution order (explicit
// top-level field → primary nested entry → first nested entry → null)
// explicit and testable per field.
func resolve(extractors ...func() *string) *string {
	for _, extract := range extractors {
		if v := extract(); v != nil && strings.TrimSpace(*v) != "" {
			return v
		}
	}
	return nil
}

// lit adapts a plain field pointer into an extractor.
func lit(p *string) func() *string {
	return func() *string { return p }
}

// primaryCard returns the card flagged primary, or nil.
func primaryCard(cards []karbon.BusinessCard) *karbon.BusinessCard {
	for i := range cards {
		if cards[i].IsPrimaryCard {
			return &cards[i]
		}
	}
	return nil
}

// firstCard returns the first card, or nil.
func firstCard(cards []karbon.BusinessCard) *karbon.BusinessCard {
	if len(cards) == 0 {
		return nil
	}
	return &cards[0]
}

func cardEmail(card *karbon.BusinessCard) *string {
	if card == nil || len(card.EmailAddresses) == 0 {
		return nil
	}
	return &card.EmailAddresses[0]
}

func cardPhone(card *karbon.BusinessCard) *string {
	if card == nil || len(card.PhoneNumbers) == 0 {
		return nil
	}
	return &card.PhoneNumbers[0].Number
}

func cardWebsite(card *karbon.BusinessCard) *string {
	if card == nil || len(card.WebSites) == 0 {
		return nil
	}
	return &card.WebSites[0]
}

func cardAddress(card *karbon.BusinessCard) *karbon.Address {
	if card == nil || len(card.Addresses) == 0 {
		return nil
	}
	return &card.Addresses[0]
}

func cardLinkedIn(card *karbon.BusinessCard) *string {
	if card == nil {
		return nil
	}
	return card.LinkedInLink
}

func cardFacebook(card *karbon.BusinessCard) *string {
	if card == nil {
		return nil
	}
	return card.FacebookLink
}

func cardTwitter(card *karbon.BusinessCard) *string {
	if card == nil {
		return nil
	}
	return card.TwitterLink
}

// cardContactFields resolves the shared contact-detail columns (email,
// phone, address, website, social links) for a record with business cards.
// topEmail/topPhone are the record's explicit top-level fields, which win
// over any card entry.
func cardContactFields(topEmail, topPhone *string, cards []karbon.BusinessCard) map[string]any {
	primary := primaryCard(cards)
	first := firstCard(cards)

	addr := cardAddress(primary)
	if addr == nil {
		addr = cardAddress(first)
	}

	fields := map[string]any{
		"email": val(resolve(
			lit(topEmail),
			func() *string { return cardEmail(primary) },
			func() *string { return cardEmail(first) },
		)),
		"phone": val(resolve(
			lit(topPhone),
			func() *string { return cardPhone(primary) },
			func() *string { return cardPhone(first) },
		)),
		"website": val(resolve(
			func() *string { return cardWebsite(primary) },
			func() *string { return cardWebsite(first) },
		)),
		"linkedin_url": val(resolve(
			func() *string { return cardLinkedIn(primary) },
			func() *string { return cardLinkedIn(first) },
		)),
		"facebook_url": val(resolve(
			func() *string { return cardFacebook(primary) },
			func() *string { return cardFacebook(first) },
		)),
		"twitter_url": val(resolve(
			func() *string { return cardTwitter(primary) },
			func() *string { return cardTwitter(first) },
		)),
		"address": nil,
		"city":    nil,
		"state":   nil,
		"zip":     nil,
		"country": nil,
	}

	if addr != nil {
		fields["address"] = val(addr.AddressLines)
		fields["city"] = val(addr.City)
		fields["state"] = val(addr.StateProvinceCounty)
		fields["zip"] = val(addr.ZipCode)
		fields["country"] = val(addr.CountryCode)
	}

	return fields
}

// val converts a possibly-nil pointer into a plain value or untyped nil,
// so Field maps never carry typed-nil pointers.
func val[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// timeVal is val for timestamps, normalizing to UTC.
func timeVal(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

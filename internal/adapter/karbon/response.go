package karbon

import (
	"encoding/json"
	"time"
)

// envelope is the OData response wrapper returned by every collection
// endpoint: { "value": [...], "@odata.nextLink": "..." }.
type envelope struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// PhoneNumber is a phone entry on a business card.
type PhoneNumber struct {
	Number string  `json:"Number"`
	Label  *string `json:"Label"`
}

// Address is a postal address entry on a business card.
type Address struct {
	AddressLines        *string `json:"AddressLines"`
	City                *string `json:"City"`
	StateProvinceCounty *string `json:"StateProvinceCounty"`
	ZipCode             *string `json:"ZipCode"`
	CountryCode         *string `json:"CountryCode"`
}

// BusinessCard groups the contact details Karbon attaches to contacts and
// organizations. A record may carry several cards; at most one is flagged
// primary.
type BusinessCard struct {
	IsPrimaryCard  bool          `json:"IsPrimaryCard"`
	EmailAddresses []string      `json:"EmailAddresses"`
	PhoneNumbers   []PhoneNumber `json:"PhoneNumbers"`
	Addresses      []Address     `json:"Addresses"`
	WebSites       []string      `json:"WebSites"`
	LinkedInLink   *string       `json:"LinkedInLink"`
	FacebookLink   *string       `json:"FacebookLink"`
	TwitterLink    *string       `json:"TwitterLink"`
}

// RegistrationNumber is a government registration entry on an organization.
// Type is free text entered by firm staff ("Federal EIN", "CA Sales Tax #",
// ...) and is classified by the field mapper.
type RegistrationNumber struct {
	RegistrationNumber string  `json:"RegistrationNumber"`
	Type               *string `json:"Type"`
}

// Contact is a raw individual client record.
type Contact struct {
	ContactKey           string         `json:"ContactKey"`
	FirstName            *string        `json:"FirstName"`
	MiddleName           *string        `json:"MiddleName"`
	LastName             *string        `json:"LastName"`
	PreferredName        *string        `json:"PreferredName"`
	Salutation           *string        `json:"Salutation"`
	EmailAddress         *string        `json:"EmailAddress"`
	PhoneNumber          *string        `json:"PhoneNumber"`
	ContactType          *string        `json:"ContactType"`
	RestrictionLevel     *string        `json:"RestrictionLevel"`
	ClientOwner          *string        `json:"ClientOwner"`
	ClientManager        *string        `json:"ClientManager"`
	ClientGroupKey       *string        `json:"ClientGroupKey"`
	ClientGroupName      *string        `json:"ClientGroupName"`
	BusinessCards        []BusinessCard `json:"BusinessCards"`
	LastModifiedDateTime *time.Time     `json:"LastModifiedDateTime"`
}

// Organization is a raw business client record.
type Organization struct {
	OrganizationKey      string               `json:"OrganizationKey"`
	FullName             *string              `json:"FullName"`
	EntityType           *string              `json:"EntityType"`
	ContactType          *string              `json:"ContactType"`
	RestrictionLevel     *string              `json:"RestrictionLevel"`
	ClientOwner          *string              `json:"ClientOwner"`
	ClientManager        *string              `json:"ClientManager"`
	ClientGroupKey       *string              `json:"ClientGroupKey"`
	ClientGroupName      *string              `json:"ClientGroupName"`
	RegistrationNumbers  []RegistrationNumber `json:"RegistrationNumbers"`
	BusinessCards        []BusinessCard       `json:"BusinessCards"`
	LastModifiedDateTime *time.Time           `json:"LastModifiedDateTime"`
}

// ClientGroup is a raw grouping of related contacts/organizations.
type ClientGroup struct {
	ClientGroupKey       string     `json:"ClientGroupKey"`
	FullName             *string    `json:"FullName"`
	Type                 *string    `json:"Type"`
	ClientOwner          *string    `json:"ClientOwner"`
	MemberCount          *int       `json:"MemberCount"`
	LastModifiedDateTime *time.Time `json:"LastModifiedDateTime"`
}

// WorkItem is a raw unit of tracked work.
type WorkItem struct {
	WorkItemKey          string     `json:"WorkItemKey"`
	Title                *string    `json:"Title"`
	WorkType             *string    `json:"WorkType"`
	PrimaryStatus        *string    `json:"PrimaryStatus"`
	SecondaryStatus      *string    `json:"SecondaryStatus"`
	WorkflowStep         *string    `json:"WorkflowStep"`
	ClientKey            *string    `json:"ClientKey"`
	ClientType           *string    `json:"ClientType"`
	ClientName           *string    `json:"ClientName"`
	ClientGroupKey       *string    `json:"RelatedClientGroupKey"`
	ClientGroupName      *string    `json:"RelatedClientGroupName"`
	AssigneeName         *string    `json:"AssigneeName"`
	AssigneeEmailAddress *string    `json:"AssigneeEmailAddress"`
	StartDate            *time.Time `json:"StartDate"`
	DueDate              *time.Time `json:"DueDate"`
	DeadlineDate         *time.Time `json:"DeadlineDate"`
	CompletedDate        *time.Time `json:"CompletedDate"`
	TaxYear              *int       `json:"TaxYear"`
	YearEnd              *time.Time `json:"YearEnd"`
	FeeType              *string    `json:"FeeType"`
	Budget               *float64   `json:"Budget"`
	Description          *string    `json:"Description"`
	LastModifiedDateTime *time.Time `json:"LastModifiedDateTime"`
}

// Task is a raw checklist task nested under a work item.
type Task struct {
	TaskKey              string     `json:"TaskKey"`
	WorkItemKey          string     `json:"WorkItemKey"`
	Title                *string    `json:"Title"`
	Status               *string    `json:"Status"`
	AssigneeEmailAddress *string    `json:"AssigneeEmailAddress"`
	DueDate              *time.Time `json:"DueDate"`
	LastModifiedDateTime *time.Time `json:"LastModifiedDateTime"`
}

// Note is a raw timeline note nested under a work item.
type Note struct {
	NoteKey              string     `json:"NoteKey"`
	WorkItemKey          string     `json:"WorkItemKey"`
	Subject              *string    `json:"Subject"`
	Body                 *string    `json:"Body"`
	AuthorEmailAddress   *string    `json:"AuthorEmailAddress"`
	CreatedDateTime      *time.Time `json:"CreatedDateTime"`
	LastModifiedDateTime *time.Time `json:"LastModifiedDateTime"`
}

// Invoice is a raw billing record.
type Invoice struct {
	InvoiceKey           string     `json:"InvoiceKey"`
	InvoiceNumber        *string    `json:"InvoiceNumber"`
	ClientKey            *string    `json:"ClientKey"`
	ClientType           *string    `json:"ClientType"`
	ClientName           *string    `json:"ClientName"`
	InvoiceStatus        *string    `json:"InvoiceStatus"`
	Amount               *float64   `json:"Amount"`
	TaxAmount            *float64   `json:"TaxAmount"`
	InvoiceDate          *time.Time `json:"InvoiceDate"`
	DueDate              *time.Time `json:"DueDate"`
	PaidDate             *time.Time `json:"PaidDate"`
	LastModifiedDateTime *time.Time `json:"LastModifiedDateTime"`
}

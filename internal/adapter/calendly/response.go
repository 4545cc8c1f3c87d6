package calendly

import "time"

// collection is the Calendly list response wrapper.
type collection[T any] struct {
	Collection []T        `json:"collection"`
	Pagination pagination `json:"pagination"`
}

type pagination struct {
	NextPage      *string `json:"next_page"`
	NextPageToken *string `json:"next_page_token"`
}

// Location describes where a scheduled event takes place.
type Location struct {
	Type     *string `json:"type"`
	Location *string `json:"location"`
}

// Event is a raw scheduled event.
type Event struct {
	URI       string     `json:"uri"`
	Name      *string    `json:"name"`
	Status    *string    `json:"status"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Location  *Location  `json:"location"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Cancellation carries the reason an invitee canceled.
type Cancellation struct {
	Reason     *string `json:"reason"`
	CanceledBy *string `json:"canceled_by"`
}

// Invitee is a raw event invitee.
type Invitee struct {
	URI          string        `json:"uri"`
	Name         *string       `json:"name"`
	Email        *string       `json:"email"`
	Status       *string       `json:"status"`
	Cancellation *Cancellation `json:"cancellation"`
}

// WebhookPayload is the body of a Calendly webhook delivery
// (invitee.created / invitee.canceled).
type WebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Invitee
		ScheduledEvent Event `json:"scheduled_event"`
	} `json:"payload"`
}

package polarwebhook

import (
	"encoding/json"
	"strings"
	"time"
)

// Event is the outer envelope of a Polar webhook delivery.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// eventData covers the union of fields this handler reads across
// subscription.* and order.* payloads. Unknown fields are ignored.
type eventData struct {
	ID               string            `json:"id"`
	Status           string            `json:"status"`
	Amount           int64             `json:"amount"`
	Created          string            `json:"created"`
	CurrentPeriodEnd string            `json:"current_period_end"`
	CancelAtPeriod   bool              `json:"cancel_at_period_end"`
	Metadata         map[string]string `json:"metadata"`

	Customer struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"customer"`

	Subscription struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		CurrentPeriodEnd string `json:"current_period_end"`
	} `json:"subscription"`

	Order struct {
		ID      string `json:"id"`
		Amount  int64  `json:"amount"`
		Status  string `json:"status"`
		Created string `json:"created"`
	} `json:"order"`
}

// ParseEvent decodes the raw delivery body.
func ParseEvent(raw []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (e *Event) data() (*eventData, error) {
	var data eventData
	if len(e.Data) > 0 {
		if err := json.Unmarshal(e.Data, &data); err != nil {
			return nil, err
		}
	}
	return &data, nil
}

// userID digs the account reference out of the payload. Checkout sessions
// stamp metadata.userId; some deliveries carry user_id or nest it under
// the customer record instead.
func (d *eventData) userID() string {
	if v := d.Metadata["userId"]; v != "" {
		return v
	}
	if v := d.Metadata["user_id"]; v != "" {
		return v
	}
	return d.Customer.Metadata["userId"]
}

func (d *eventData) subscriptionStatus() string {
	if d.Status != "" {
		return d.Status
	}
	if d.Subscription.Status != "" {
		return d.Subscription.Status
	}
	return "active"
}

func (d *eventData) subscriptionID() string {
	if d.ID != "" {
		return d.ID
	}
	return d.Subscription.ID
}

func (d *eventData) periodEnd() *time.Time {
	raw := d.CurrentPeriodEnd
	if raw == "" {
		raw = d.Subscription.CurrentPeriodEnd
	}
	return parseTime(raw)
}

func (d *eventData) invoiceID() string {
	if d.ID != "" {
		return d.ID
	}
	return d.Order.ID
}

func (d *eventData) orderAmount() int64 {
	if d.Amount != 0 {
		return d.Amount
	}
	return d.Order.Amount
}

func (d *eventData) orderStatus() string {
	if d.Status != "" {
		return d.Status
	}
	if d.Order.Status != "" {
		return d.Order.Status
	}
	return "paid"
}

func (d *eventData) paymentDate(fallback time.Time) time.Time {
	raw := d.Created
	if raw == "" {
		raw = d.Order.Created
	}
	if ts := parseTime(raw); ts != nil {
		return *ts
	}
	return fallback
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}

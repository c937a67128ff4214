// Package notify delivers follow-up reminders to an external webhook and
// ingests contact files dropped into the data inbox directory.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/rolohq/rolo/internal/analytics"
	"github.com/rolohq/rolo/internal/storage"
)

// Reminder payload field names are part of the webhook contract; renaming
// them breaks downstream automations.
type ReminderPayload struct {
	ContactID string     `json:"contact_id"`
	Name      string     `json:"name"`
	Event     string     `json:"event"`
	Urgency   string     `json:"urgency"`
	Severity  string     `json:"severity"`
	Badge     string     `json:"badge"`
	DueDate   *time.Time `json:"due_date,omitempty"`
}

// Reminder periodically sweeps the contact list and POSTs one JSON payload
// per overdue or due-soon follow-up to the configured webhook. Deliveries go
// through a circuit breaker and are paced by a rate limiter so a slow webhook
// never sees a burst.
type Reminder struct {
	store      storage.ContactStore
	webhookURL string
	interval   time.Duration
	client     *http.Client
	breaker    *Breaker
	limiter    *rate.Limiter
	done       chan struct{}
}

// NewReminder creates a reminder loop for the given store and webhook URL.
func NewReminder(store storage.ContactStore, webhookURL string, interval time.Duration) *Reminder {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Reminder{
		store:      store,
		webhookURL: webhookURL,
		interval:   interval,
		client:     &http.Client{Timeout: 10 * time.Second},
		breaker:    NewBreaker(),
		limiter:    rate.NewLimiter(rate.Limit(2), 5), // 2 deliveries/sec, burst 5
		done:       make(chan struct{}),
	}
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
func (r *Reminder) Run(ctx context.Context) {
	defer close(r.done)

	if err := r.Sweep(ctx, time.Now()); err != nil {
		log.Printf("notify: reminder sweep failed: %v", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(ctx, time.Now()); err != nil {
				log.Printf("notify: reminder sweep failed: %v", err)
			}
		}
	}
}

// Wait blocks until a Run loop started in another goroutine has exited.
func (r *Reminder) Wait() {
	<-r.done
}

// Sweep classifies every contact against now and delivers a reminder for each
// overdue or due-soon follow-up. Delivery errors are logged per contact; the
// sweep keeps going so one bad payload cannot starve the rest.
func (r *Reminder) Sweep(ctx context.Context, now time.Time) error {
	contacts, err := r.store.All(ctx)
	if err != nil {
		return fmt.Errorf("notify: failed to list contacts: %w", err)
	}

	sent := 0
	for i := range contacts {
		c := &contacts[i]

		u := analytics.ClassifyUrgency(c, now)
		if u.Class != analytics.UrgencyOverdue && u.Class != analytics.UrgencyDueSoon {
			continue
		}

		payload := ReminderPayload{
			ContactID: c.ID,
			Name:      c.Name,
			Event:     c.EventName(),
			Urgency:   string(u.Class),
			Severity:  string(u.Severity),
			Badge:     analytics.StatusBadge(c, now),
			DueDate:   c.FollowUpDueDate,
		}

		if err := r.deliver(ctx, payload); err != nil {
			log.Printf("notify: reminder for contact %s not delivered: %v", c.ID, err)
			continue
		}
		sent++
	}

	if sent > 0 {
		log.Printf("notify: delivered %d follow-up reminders", sent)
	}
	return nil
}

func (r *Reminder) deliver(ctx context.Context, payload ReminderPayload) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: failed to encode payload: %w", err)
	}

	return r.breaker.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.webhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil
	})
}

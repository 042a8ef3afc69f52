package google

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/koyomi/koyomi/internal/core/domain"
	"github.com/koyomi/koyomi/internal/logger"
	"github.com/koyomi/koyomi/internal/ratelimit"
)

// CalendarClient manages release events on the user's calendar, gating
// every call on the shared calendar limiter.
type CalendarClient struct {
	svc     *calendar.Service
	limiter *ratelimit.Limiter
}

// NewCalendarClient wires a Calendar service to the registry's calendar limiter.
func NewCalendarClient(svc *calendar.Service, registry *ratelimit.Registry) (*CalendarClient, error) {
	limiter, err := registry.Get(domain.APICalendar)
	if err != nil {
		return nil, err
	}
	return &CalendarClient{svc: svc, limiter: limiter}, nil
}

// InsertEvent creates an event on the given calendar.
func (c *CalendarClient) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	c.limiter.Gate()

	created, err := c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	logger.Debug("created event %s on %s", created.Id, calendarID)
	return created, nil
}

// ListEvents returns upcoming events between min and max.
func (c *CalendarClient) ListEvents(ctx context.Context, calendarID string, min, max time.Time) ([]*calendar.Event, error) {
	c.limiter.Gate()

	result, err := c.svc.Events.List(calendarID).
		TimeMin(min.Format(time.RFC3339)).
		TimeMax(max.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return result.Items, nil
}

// DeleteEvent removes an event from the given calendar.
func (c *CalendarClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	c.limiter.Gate()

	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

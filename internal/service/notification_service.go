package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// Mailer delivers out-of-band email. Delivery is best-effort; callers log
// failures and move on.
type Mailer interface {
	SendTicketClosedReport(ctx context.Context, recipientEmail, ticketNumber string) error
}

// LoggingMailer is the default Mailer. It logs the send instead of talking
// to an SMTP relay.
type LoggingMailer struct {
	logger *zap.Logger
	from   string
}

// NewLoggingMailer builds the stub mailer.
func NewLoggingMailer(logger *zap.Logger, from string) *LoggingMailer {
	return &LoggingMailer{logger: logger, from: from}
}

// SendTicketClosedReport logs the closed-ticket report send.
func (m *LoggingMailer) SendTicketClosedReport(_ context.Context, recipientEmail, ticketNumber string) error {
	m.logger.Info("ticket closed report sent",
		zap.String("from", m.from),
		zap.String("recipient", recipientEmail),
		zap.String("ticket_number", ticketNumber),
	)
	return nil
}

// NotificationService turns lifecycle events into per-recipient inbox
// rows. Handler failures are logged and swallowed so a broken notification
// path never rolls back or fails the operation that triggered it.
type NotificationService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	mailer     Mailer
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(store repository.Store, dispatcher events.Dispatcher, mailer Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:      store,
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
	}
}

// RegisterHandlers subscribes the fan-out handlers to the dispatcher.
func (n *NotificationService) RegisterHandlers() {
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

// handleTicketCreated notifies the active department heads of the ticket's
// department plus every active admin.
func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for ticket_created event", zap.String("event_id", event.ID))
		return nil
	}

	active := true
	headRole := domain.RoleDepartmentHead
	heads, err := n.store.Actors().List(ctx, repository.ActorFilter{
		Role:         &headRole,
		DepartmentID: &payload.DepartmentID,
		Active:       &active,
	})
	if err != nil {
		n.logger.Error("failed to resolve department heads", zap.Error(err))
		heads = nil
	}
	adminRole := domain.RoleAdmin
	admins, err := n.store.Actors().List(ctx, repository.ActorFilter{
		Role:   &adminRole,
		Active: &active,
	})
	if err != nil {
		n.logger.Error("failed to resolve admins", zap.Error(err))
		admins = nil
	}

	recipients := make([]string, 0, len(heads)+len(admins))
	for _, a := range heads {
		recipients = append(recipients, a.ID)
	}
	for _, a := range admins {
		recipients = append(recipients, a.ID)
	}

	n.deliver(ctx, dedupe(recipients, nil), domain.Notification{
		Kind:     domain.NotificationTicketCreated,
		Title:    fmt.Sprintf("New ticket %s", payload.Number),
		Body:     payload.Subject,
		TicketID: &event.TicketID,
	})
	return nil
}

// handleTicketAssigned notifies the new assignee and the ticket creator.
func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for ticket_assigned event", zap.String("event_id", event.ID))
		return nil
	}

	n.deliver(ctx, dedupe([]string{payload.AssigneeID, payload.CreatorID}, nil), domain.Notification{
		Kind:     domain.NotificationTicketAssigned,
		Title:    fmt.Sprintf("Ticket %s assigned", payload.Number),
		Body:     fmt.Sprintf("ticket %s has a new assignee", payload.Number),
		TicketID: &event.TicketID,
	})
	return nil
}

// handleStatusChanged notifies the ticket creator. Closing a ticket also
// sends the creator a report email, best-effort.
func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for status_changed event", zap.String("event_id", event.ID))
		return nil
	}

	n.deliver(ctx, []string{payload.CreatorID}, domain.Notification{
		Kind:     domain.NotificationStatusChanged,
		Title:    fmt.Sprintf("Ticket %s is now %s", payload.Number, payload.NewStatus),
		Body:     payload.Note,
		TicketID: &event.TicketID,
	})

	if payload.NewStatus == domain.TicketStatusClosed && n.mailer != nil {
		creator, err := n.store.Actors().GetByID(ctx, payload.CreatorID)
		if err != nil {
			n.logger.Error("failed to load creator for closed report", zap.Error(err))
			return nil
		}
		if err := n.mailer.SendTicketClosedReport(ctx, creator.Email, payload.Number); err != nil {
			n.logger.Error("ticket closed report failed",
				zap.String("ticket_number", payload.Number),
				zap.Error(err),
			)
		}
	}
	return nil
}

// handleCommentAdded notifies the ticket creator and current assignee,
// excluding the comment author. Internal comments produce no fan-out.
func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		n.logger.Warn("unexpected payload for comment_added event", zap.String("event_id", event.ID))
		return nil
	}
	if payload.Internal {
		return nil
	}

	candidates := []string{payload.CreatorID}
	if payload.AssigneeID != nil {
		candidates = append(candidates, *payload.AssigneeID)
	}

	n.deliver(ctx, dedupe(candidates, &payload.AuthorID), domain.Notification{
		Kind:     domain.NotificationCommentAdded,
		Title:    fmt.Sprintf("New comment on ticket %s", payload.Number),
		Body:     payload.Preview,
		TicketID: &event.TicketID,
	})
	return nil
}

// deliver writes one notification row per recipient. Failed rows are
// logged; delivery continues with the remaining recipients.
func (n *NotificationService) deliver(ctx context.Context, recipients []string, template domain.Notification) {
	for _, recipientID := range recipients {
		row := template
		row.RecipientID = recipientID
		if err := n.store.Notifications().Create(ctx, &row); err != nil {
			n.logger.Error("failed to store notification",
				zap.String("recipient_id", recipientID),
				zap.String("kind", string(template.Kind)),
				zap.Error(err),
			)
		}
	}
}

// dedupe removes duplicate recipient IDs, preserving order, and drops the
// excluded ID when given.
func dedupe(ids []string, exclude *string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if exclude != nil && id == *exclude {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ListNotifications returns the actor's inbox, newest first.
func (n *NotificationService) ListNotifications(ctx context.Context, actor *domain.Actor, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	rows, err := n.store.Notifications().ListByRecipient(ctx, actor.ID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return rows, nil
}

// MarkRead marks one of the actor's notifications as read.
func (n *NotificationService) MarkRead(ctx context.Context, actor *domain.Actor, notificationID string) error {
	if err := n.store.Notifications().MarkRead(ctx, notificationID, actor.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// Dismiss removes one of the actor's notifications. The ticket itself is
// unaffected.
func (n *NotificationService) Dismiss(ctx context.Context, actor *domain.Actor, notificationID string) error {
	if err := n.store.Notifications().Delete(ctx, notificationID, actor.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

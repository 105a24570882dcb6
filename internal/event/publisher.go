package event

import (
	"context"
	"log/slog"

	"github.com/antoniojosev/crm-satoru/internal/domain"
	"github.com/antoniojosev/crm-satoru/pkg/kafka"
	"github.com/antoniojosev/crm-satoru/pkg/logger"
)

// Audit topics. One topic per admin action family keeps retention and
// consumer policies independent.
const (
	TopicSessionLogin         = "satoru.admin.session.login"
	TopicSessionLogout        = "satoru.admin.session.logout"
	TopicProjectCreated       = "satoru.admin.project.created"
	TopicProjectStatusChanged = "satoru.admin.project.status_changed"
	TopicProjectDeleted       = "satoru.admin.project.deleted"
	TopicKycReviewed          = "satoru.admin.investor.kyc_reviewed"
)

const source = "satoru-admin-dashboard"

// Publisher emits audit events for admin actions. Publishing is best-effort:
// a broker outage is logged and the admin request proceeds.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewPublisher creates an audit event publisher.
func NewPublisher(producer *kafka.Producer, log *slog.Logger) *Publisher {
	return &Publisher{producer: producer, logger: log}
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) {
	if p == nil || p.producer == nil {
		return
	}

	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build audit event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.producer.Publish(ctx, topic, evt); err != nil {
		p.logger.WarnContext(ctx, "audit event dropped",
			slog.String("topic", topic),
			slog.String("event_type", eventType),
		)
	}
}

// SessionOpened records a successful admin login.
func (p *Publisher) SessionOpened(ctx context.Context, user domain.User) {
	p.publish(ctx, TopicSessionLogin, "session.opened", user.ID, "user", map[string]string{
		"email": user.Email,
		"role":  string(user.Role),
	})
}

// SessionClosed records a logout.
func (p *Publisher) SessionClosed(ctx context.Context, userID string) {
	p.publish(ctx, TopicSessionLogout, "session.closed", userID, "user", map[string]string{})
}

// ProjectCreated records a new project.
func (p *Publisher) ProjectCreated(ctx context.Context, adminID string, project domain.Project) {
	p.publish(ctx, TopicProjectCreated, "project.created", project.ID, "project", map[string]string{
		"adminId": adminID,
		"name":    project.Name,
	})
}

// ProjectStatusChanged records a lifecycle transition.
func (p *Publisher) ProjectStatusChanged(ctx context.Context, adminID string, project domain.Project, from domain.ProjectStatus) {
	p.publish(ctx, TopicProjectStatusChanged, "project.status_changed", project.ID, "project", map[string]string{
		"adminId": adminID,
		"from":    string(from),
		"to":      string(project.Status),
	})
}

// ProjectDeleted records a project removal.
func (p *Publisher) ProjectDeleted(ctx context.Context, adminID, projectID string) {
	p.publish(ctx, TopicProjectDeleted, "project.deleted", projectID, "project", map[string]string{
		"adminId": adminID,
	})
}

// KycReviewed records an admin KYC decision.
func (p *Publisher) KycReviewed(ctx context.Context, adminID string, investor domain.Investor) {
	p.publish(ctx, TopicKycReviewed, "investor.kyc_reviewed", investor.ID, "investor", map[string]string{
		"adminId":  adminID,
		"decision": string(investor.KycStatus),
	})
}

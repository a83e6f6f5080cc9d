package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const (
	ActionEmployeeCreate     = "core.employee.create"
	ActionEmployeeUpdate     = "core.employee.update"
	ActionEmployeeSubmitFail = "core.employee.submit_failed"
	ActionDocumentDelete     = "core.document.delete"
	ActionDocumentDeleteAll  = "core.document.delete_all"
)

type Event struct {
	TenantID   string          `json:"tenantId"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Sink receives recorded events. The default sink writes them to the audit logger.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

type logSink struct {
	logger *slog.Logger
}

func (s logSink) Write(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit",
		"tenantId", event.TenantID,
		"actorId", event.ActorID,
		"action", event.Action,
		"entityType", event.EntityType,
		"entityId", event.EntityID,
		"requestId", event.RequestID,
		"ip", event.IP,
		"after", string(event.After),
	)
	return nil
}

type Service struct {
	sink Sink
	now  func() time.Time
}

func New(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return NewWithSink(logSink{logger: logger.With("component", "audit")})
}

func NewWithSink(sink Sink) *Service {
	return &Service{sink: sink, now: time.Now}
}

func (s *Service) Record(ctx context.Context, tenantID, actorID, action, entityType, entityID, requestID, ip string, after any) error {
	if s == nil || s.sink == nil {
		return nil
	}
	var afterJSON []byte
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return err
		}
		afterJSON = payload
	}
	return s.sink.Write(ctx, Event{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestID,
		IP:         ip,
		CreatedAt:  s.now().UTC(),
		After:      afterJSON,
	})
}

package service

import (
	"context"
	"fmt"

	"github.com/djishijima/hellbuild-v3/internal/application/dispatcher"
	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	"github.com/djishijima/hellbuild-v3/internal/domain/event"
)

// NotificationService delivers workflow events to users over the messenger
type NotificationService interface {
	// HandleEvent is a dispatcher.Handler. Submissions notify approvers,
	// decisions notify the applicant.
	HandleEvent(ctx context.Context, evt *event.Event) error

	// Register subscribes HandleEvent to the events it delivers
	Register(d dispatcher.Dispatcher)
}

type notificationServiceImpl struct {
	userRepo  port.UserRepository
	messenger port.Messenger
	logger    Logger
}

// NewNotificationService creates a new NotificationService. A nil messenger
// turns every notification into a log line.
func NewNotificationService(userRepo port.UserRepository, messenger port.Messenger, logger Logger) NotificationService {
	return &notificationServiceImpl{
		userRepo:  userRepo,
		messenger: messenger,
		logger:    logger,
	}
}

func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeApprovalSubmitted,
		event.TypeApprovalApproved,
		event.TypeApprovalRejected,
		event.TypeApprovalReturned,
	} {
		d.SubscribeNamed(t, "notification", s.HandleEvent)
	}
}

func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	switch {
	case evt.Type == event.TypeApprovalSubmitted:
		return s.notifyApprovers(ctx, evt)
	case evt.Type.IsDecision():
		return s.notifyApplicant(ctx, evt)
	default:
		return nil
	}
}

func (s *notificationServiceImpl) notifyApplicant(ctx context.Context, evt *event.Event) error {
	applicantID := evt.GetPayloadString(event.KeyApplicantID)
	user, err := s.userRepo.GetByID(ctx, applicantID)
	if err != nil {
		s.logger.Error("Failed to get applicant", "error", err, "record_id", evt.RecordID)
		return fmt.Errorf("get applicant: %w", err)
	}
	if user == nil || user.LarkOpenID == "" {
		s.logger.Info("Applicant has no messenger account, skipping", "record_id", evt.RecordID, "applicant_id", applicantID)
		return nil
	}

	return s.send(ctx, user, evt.RecordID, decisionMessage(evt))
}

func (s *notificationServiceImpl) notifyApprovers(ctx context.Context, evt *event.Event) error {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list users", "error", err, "record_id", evt.RecordID)
		return fmt.Errorf("list users: %w", err)
	}

	message := fmt.Sprintf("承認依頼が届きました。\n\n件名: %s\n申請ID: %s", evt.GetPayloadString(event.KeyTitle), evt.RecordID)

	var firstErr error
	for _, u := range users {
		if !u.CanApprove() || u.Status != entity.UserStatusActive || u.LarkOpenID == "" {
			continue
		}
		if u.ID == evt.GetPayloadString(event.KeyApplicantID) {
			continue
		}
		if err := s.send(ctx, u, evt.RecordID, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *notificationServiceImpl) send(ctx context.Context, user *entity.User, recordID, message string) error {
	if s.messenger == nil {
		s.logger.Info("Messenger disabled, notification not sent", "record_id", recordID, "user_id", user.ID)
		return nil
	}

	if err := s.messenger.SendText(ctx, user.LarkOpenID, message); err != nil {
		s.logger.Error("Failed to send message", "error", err, "record_id", recordID, "open_id", user.LarkOpenID)
		return fmt.Errorf("send message: %w", err)
	}

	s.logger.Info("Notification sent successfully",
		"record_id", recordID,
		"user_id", user.ID,
		"message_length", len(message),
	)
	return nil
}

// decisionMessage builds the applicant-facing text for a decision event
func decisionMessage(evt *event.Event) string {
	title := evt.GetPayloadString(event.KeyTitle)
	status := entity.Status(evt.GetPayloadString(event.KeyStatus))

	message := fmt.Sprintf("申請「%s」は%sになりました。\n\n申請ID: %s", title, status.Label(), evt.RecordID)
	if remarks := evt.GetPayloadString(event.KeyRemarks); remarks != "" {
		message += fmt.Sprintf("\nコメント: %s", remarks)
	}
	if evt.Type == event.TypeApprovalReturned {
		message += "\n\n内容を修正して再申請してください。"
	}
	return message
}

package lark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// Messages are addressed by open_id and sent as plain text
const (
	receiveIDTypeOpenID = "open_id"
	msgTypeText         = "text"
)

// MessageCreator is the IM message endpoint of the Lark SDK
type MessageCreator interface {
	Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
}

// Messenger implements port.Messenger with Lark IM text messages
type Messenger struct {
	messages MessageCreator
	logger   *zap.Logger
}

// NewMessenger creates a new Lark messenger
func NewMessenger(client *lark.Client, logger *zap.Logger) *Messenger {
	return NewMessengerWithCreator(client.Im.Message, logger)
}

// NewMessengerWithCreator creates a messenger around an IM message endpoint
func NewMessengerWithCreator(messages MessageCreator, logger *zap.Logger) *Messenger {
	return &Messenger{messages: messages, logger: logger}
}

// SendText sends a plain text message to a user
func (m *Messenger) SendText(ctx context.Context, openID, text string) error {
	if openID == "" {
		return errors.New("openID cannot be empty")
	}
	if text == "" {
		return errors.New("text cannot be empty")
	}

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDTypeOpenID).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(openID).
			MsgType(msgTypeText).
			Content(string(content)).
			Build()).
		Build()

	resp, err := m.messages.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("receive_id", openID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("receive_id", openID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	m.logger.Info("Message sent successfully",
		zap.String("message_id", messageID),
		zap.String("receive_id", openID))

	return nil
}

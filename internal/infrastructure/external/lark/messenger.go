package lark

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/priyamtech/expense-approval/internal/application/port"
)

// Config holds Lark client configuration
type Config struct {
	AppID     string
	AppSecret string
}

// Messenger implements port.NotificationDeliverer over the Lark IM API.
type Messenger struct {
	client *lark.Client
	logger *zap.Logger
}

// NewMessenger creates a new Lark messenger
func NewMessenger(cfg Config, logger *zap.Logger) *Messenger {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return &Messenger{client: client, logger: logger}
}

// Deliver sends the message as a text message keyed by open_id.
func (m *Messenger) Deliver(ctx context.Context, msg port.Message) error {
	content, err := json.Marshal(map[string]string{
		"text": fmt.Sprintf("%s\n%s", msg.Title, msg.Body),
	})
	if err != nil {
		return fmt.Errorf("failed to encode message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("open_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(msg.RecipientOpenID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := m.client.Im.Message.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("open_id", msg.RecipientOpenID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("Lark API returned failure",
			zap.String("open_id", msg.RecipientOpenID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("lark API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	m.logger.Info("Message delivered",
		zap.String("message_id", messageID),
		zap.String("open_id", msg.RecipientOpenID))
	return nil
}

var _ port.NotificationDeliverer = (*Messenger)(nil)

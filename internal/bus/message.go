// Package bus defines the message types that flow between channels and the agent.
package bus

import "time"

// ChannelType identifies a chat platform adapter.
type ChannelType string

const (
	ChannelWhatsApp ChannelType = "whatsapp"
	ChannelWeb      ChannelType = "web"
	ChannelTelegram ChannelType = "telegram"
	ChannelCLI      ChannelType = "cli"
	ChannelSystem   ChannelType = "system"
)

// InboundMessage is a message received from a chat channel.
type InboundMessage struct {
	channel   ChannelType
	senderID  string // user identifier within the channel
	chatID    string // chat / DM identifier
	content   string // message text
	timestamp time.Time
	metadata  map[string]any // channel-specific extra data (message_id, username, …)
}

// NewInboundMessage creates an InboundMessage with its timestamp set to now.
// Use SetMetadata to attach optional channel-specific data.
func NewInboundMessage(channel ChannelType, senderID, chatID, content string) InboundMessage {
	return InboundMessage{
		channel:   channel,
		senderID:  senderID,
		chatID:    chatID,
		content:   content,
		timestamp: time.Now(),
	}
}

func (m InboundMessage) Channel() ChannelType           { return m.channel }
func (m InboundMessage) SenderID() string               { return m.senderID }
func (m InboundMessage) ChatID() string                 { return m.chatID }
func (m InboundMessage) Content() string                { return m.content }
func (m InboundMessage) Timestamp() time.Time           { return m.timestamp }
func (m InboundMessage) Metadata() map[string]any       { return m.metadata }
func (m *InboundMessage) SetMetadata(md map[string]any) { m.metadata = md }

// SessionKey returns the key identifying this conversation's session row.
// Format: "channel:chat_id".
func (m InboundMessage) SessionKey() string {
	return string(m.channel) + ":" + m.chatID
}

// Preview returns a short snippet of the message content for logging.
func (m InboundMessage) Preview() string {
	preview := m.content
	if len(preview) > 80 {
		preview = preview[:80] + "..."
	}
	return preview
}

// OutboundMessage is a response to be sent back through a channel.
type OutboundMessage struct {
	channel  ChannelType
	chatID   string
	content  string
	replyTo  string         // original message ID to quote/reply to (optional)
	metadata map[string]any // channel-specific hints (parse_mode, …)
}

func NewOutboundMessage(channel ChannelType, chatID, content string) OutboundMessage {
	return OutboundMessage{channel: channel, chatID: chatID, content: content}
}

func (m OutboundMessage) Channel() ChannelType           { return m.channel }
func (m OutboundMessage) ChatID() string                 { return m.chatID }
func (m OutboundMessage) Content() string                { return m.content }
func (m OutboundMessage) ReplyTo() string                { return m.replyTo }
func (m OutboundMessage) Metadata() map[string]any       { return m.metadata }
func (m *OutboundMessage) SetReplyTo(id string)          { m.replyTo = id }
func (m *OutboundMessage) SetMetadata(md map[string]any) { m.metadata = md }

package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"bookmaker/domain/entities"
	"bookmaker/domain/events"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// channelSender is the subset of *discordgo.Session the notifier needs
type channelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts event updates and admin requests to a channel.
// Per-user notifications stay on the websocket path.
type DiscordNotifier struct {
	session   channelSender
	channelID string
}

// NewDiscordNotifier creates a notifier posting to channelID
func NewDiscordNotifier(session channelSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{session: session, channelID: channelID}
}

// OpenDiscordSession creates and opens a bot session
func OpenDiscordSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}
	return session, nil
}

func (n *DiscordNotifier) BroadcastEventUpdate(ctx context.Context, snapshot entities.EventSnapshot) error {
	return n.send(formatEventUpdate(snapshot))
}

func (n *DiscordNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, notificationType, message string) error {
	return nil
}

func (n *DiscordNotifier) BroadcastAdminRequest(ctx context.Context, payload any) error {
	return n.send(formatAdminRequest(payload))
}

func (n *DiscordNotifier) send(content string) error {
	if _, err := n.session.ChannelMessageSend(n.channelID, content); err != nil {
		return fmt.Errorf("failed to post to Discord channel %s: %w", n.channelID, err)
	}
	return nil
}

func formatEventUpdate(snapshot entities.EventSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** is now %s", snapshot.Title, snapshot.Status)
	for _, opt := range snapshot.Options {
		marker := ""
		if snapshot.WinnerOptionID != nil && *snapshot.WinnerOptionID == opt.ID {
			marker = " 🏆"
		}
		fmt.Fprintf(&b, "\n• %s @ %s%s", opt.Name, opt.CurrentOdd.StringFixed(2), marker)
	}
	return b.String()
}

func formatAdminRequest(payload any) string {
	if req, ok := payload.(events.AdminRequestEvent); ok {
		msg := fmt.Sprintf("Money request %s %s: %s for user %s", req.RequestID, strings.ToLower(req.Action), req.Amount.StringFixed(2), req.UserID)
		if req.Reason != "" {
			msg += fmt.Sprintf(" (%s)", req.Reason)
		}
		return msg
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("Admin request update: %v", payload)
	}
	return "Admin request update: " + string(data)
}

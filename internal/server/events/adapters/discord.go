package adapters

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/evalia-ai/evalia/internal/server/events"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// Embed colors.
const (
	colorEvaluated = 0x2ECC71
	colorEvent     = 0x3498DB
)

// ChannelMessenger posts embeds to a Discord channel. *discordgo.Session
// implements it.
type ChannelMessenger interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordSubscriber announces evaluated submissions and new competitions
// in a Discord channel. Other events are ignored.
type DiscordSubscriber struct {
	messenger ChannelMessenger
	channelID string
	logger    *zerolog.Logger
}

// NewDiscordSession creates a bot session for posting messages. Posting
// uses the REST API only, so the gateway connection is never opened.
func NewDiscordSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, errors.NewConfigError("discord", "bot token is required", nil)
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.NewConfigError("discord", "invalid bot token", err)
	}
	return s, nil
}

// NewDiscordSubscriber creates a subscriber posting to channelID.
func NewDiscordSubscriber(messenger ChannelMessenger, channelID string, logger *zerolog.Logger) *DiscordSubscriber {
	return &DiscordSubscriber{messenger: messenger, channelID: channelID, logger: logger}
}

// Wants implements events.Filter.
func (d *DiscordSubscriber) Wants(t events.EventType) bool {
	return t == events.SubmissionEvaluated || t == events.EventCreated
}

// Send implements events.Subscriber.
func (d *DiscordSubscriber) Send(event events.Event) error {
	var embed *discordgo.MessageEmbed
	switch event.Type {
	case events.SubmissionEvaluated:
		s, ok := event.Data.(*competitions.Submission)
		if !ok || s.Score == nil {
			return nil
		}
		embed = submissionEmbed(s)
	case events.EventCreated:
		e, ok := event.Data.(*competitions.Event)
		if !ok || e.IsPrivate {
			return nil
		}
		embed = eventEmbed(e)
	default:
		return nil
	}
	embed.Timestamp = event.Timestamp.Format("2006-01-02T15:04:05Z07:00")

	if _, err := d.messenger.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		return errors.WrapResource("post", "discord channel", d.channelID, err)
	}
	d.logger.Debug().Str("event_type", string(event.Type)).Str("channel_id", d.channelID).Msg("Discord notification sent")
	return nil
}

// Close implements events.Subscriber.
func (d *DiscordSubscriber) Close() error {
	return nil
}

func submissionEmbed(s *competitions.Submission) *discordgo.MessageEmbed {
	rank := "-"
	if s.Rank != nil {
		rank = "#" + strconv.Itoa(*s.Rank)
	}
	return &discordgo.MessageEmbed{
		Title:       "Nouvelle soumission évaluée",
		Description: fmt.Sprintf("%s a soumis un modèle pour **%s**", s.UserName, s.EventTitle),
		Color:       colorEvaluated,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Score", Value: strconv.FormatFloat(*s.Score, 'f', 4, 64), Inline: true},
			{Name: "Rang", Value: rank, Inline: true},
			{Name: "Fichier", Value: s.FileName, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Soumission " + s.ID},
	}
}

func eventEmbed(e *competitions.Event) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.DescriptionShort,
		Color:       colorEvent,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Thème", Value: string(e.Theme), Inline: true},
			{Name: "Difficulté", Value: string(e.Difficulty), Inline: true},
			{Name: "Début", Value: e.StartDate.Format("02/01/2006"), Inline: true},
			{Name: "Fin", Value: e.EndDate.Format("02/01/2006"), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Par " + e.Organizer.Name},
	}
}

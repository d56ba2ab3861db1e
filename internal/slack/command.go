package slack

import (
	"fmt"
	"net/url"
)

// Response types Slack accepts for slash-command replies.
const (
	ResponseTypeInChannel = "in_channel"
	ResponseTypeEphemeral = "ephemeral"
)

// SlashCommand is the decoded form payload of a slash-command request.
type SlashCommand struct {
	Token       string
	TeamID      string
	TeamDomain  string
	ChannelID   string
	ChannelName string
	UserID      string
	UserName    string
	Command     string
	Text        string
	ResponseURL string
	TriggerID   string
}

// Message is the JSON reply body for a slash command.
type Message struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// InChannel builds a reply visible to the whole channel.
func InChannel(text string) Message {
	return Message{ResponseType: ResponseTypeInChannel, Text: text}
}

// ParseSlashCommand decodes the form-encoded body of a slash-command
// request. When a key repeats, the first value wins. The payload must
// carry a user_name; Slack always sends one, so its absence means the
// request did not come from a slash command.
func ParseSlashCommand(body string) (SlashCommand, error) {
	values, err := url.ParseQuery(body)
	if err != nil {
		return SlashCommand{}, fmt.Errorf("parse command payload: %w", err)
	}

	cmd := SlashCommand{
		Token:       values.Get("token"),
		TeamID:      values.Get("team_id"),
		TeamDomain:  values.Get("team_domain"),
		ChannelID:   values.Get("channel_id"),
		ChannelName: values.Get("channel_name"),
		UserID:      values.Get("user_id"),
		UserName:    values.Get("user_name"),
		Command:     values.Get("command"),
		Text:        values.Get("text"),
		ResponseURL: values.Get("response_url"),
		TriggerID:   values.Get("trigger_id"),
	}
	if cmd.UserName == "" {
		return SlashCommand{}, fmt.Errorf("command payload has no user_name")
	}
	return cmd, nil
}

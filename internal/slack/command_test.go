package slack

import (
	"strings"
	"testing"
)

func TestParseSlashCommand(t *testing.T) {
	cmd, err := ParseSlashCommand(docsBody)
	if err != nil {
		t.Fatalf("ParseSlashCommand() error = %v", err)
	}

	if cmd.UserName != "roadrunner" {
		t.Errorf("UserName = %q, want %q", cmd.UserName, "roadrunner")
	}
	if cmd.Command != "/webhook-collect" {
		t.Errorf("Command = %q, want %q", cmd.Command, "/webhook-collect")
	}
	if cmd.Text != "" {
		t.Errorf("Text = %q, want empty", cmd.Text)
	}
	if cmd.ChannelName != "foobar" {
		t.Errorf("ChannelName = %q, want %q", cmd.ChannelName, "foobar")
	}
	want := "https://hooks.slack.com/commands/T1DC2JH3J/397700885554/96rGlfmibIGlgcZRskXaIFfN"
	if cmd.ResponseURL != want {
		t.Errorf("ResponseURL = %q, want %q", cmd.ResponseURL, want)
	}
}

func TestParseSlashCommandFirstValueWins(t *testing.T) {
	cmd, err := ParseSlashCommand("user_name=alice&text=first&text=second")
	if err != nil {
		t.Fatalf("ParseSlashCommand() error = %v", err)
	}
	if cmd.Text != "first" {
		t.Errorf("Text = %q, want %q", cmd.Text, "first")
	}
}

func TestParseSlashCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing user_name",
			body: "text=broke+the+build",
			want: "user_name",
		},
		{
			name: "malformed percent encoding",
			body: "user_name=%zz",
			want: "parse command payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSlashCommand(tt.body)
			if err == nil {
				t.Fatal("ParseSlashCommand() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.want)
			}
		})
	}
}

func TestInChannel(t *testing.T) {
	msg := InChannel("hello")
	if msg.ResponseType != ResponseTypeInChannel {
		t.Errorf("ResponseType = %q, want %q", msg.ResponseType, ResponseTypeInChannel)
	}
	if msg.Text != "hello" {
		t.Errorf("Text = %q, want %q", msg.Text, "hello")
	}
}

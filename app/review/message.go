package review

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/lysyi3m/review-hook/app/feed"
)

const (
	ColorPositive = "good"
	ColorNeutral  = "warning"
	ColorNegative = "danger"
)

// Message is a Slack compatible incoming webhook payload.
type Message struct {
	Username    string       `json:"username,omitempty"`
	IconURL     string       `json:"icon_url,omitempty"`
	Channel     string       `json:"channel,omitempty"`
	Attachments []Attachment `json:"attachments"`
}

type Attachment struct {
	MrkdwnIn   []string `json:"mrkdwn_in,omitempty"`
	Fallback   string   `json:"fallback"`
	Pretext    string   `json:"pretext,omitempty"`
	Color      string   `json:"color,omitempty"`
	AuthorName string   `json:"author_name,omitempty"`
	AuthorIcon string   `json:"author_icon,omitempty"`
	Title      string   `json:"title,omitempty"`
	TitleLink  string   `json:"title_link,omitempty"`
	Text       string   `json:"text,omitempty"`
}

// Stars renders rating as five filled or empty stars. Unknown ratings
// render as five empty stars.
func Stars(rating int) string {
	var b strings.Builder
	for i := 0; i < 5; i++ {
		if i < rating {
			b.WriteString("★")
		} else {
			b.WriteString("☆")
		}
	}
	return b.String()
}

func Color(rating int) string {
	switch {
	case rating >= 4:
		return ColorPositive
	case rating >= 2:
		return ColorNeutral
	default:
		return ColorNegative
	}
}

// AppName resolves the display name: configured name, then the discovered
// one, then the raw app ID.
func AppName(config *feed.Config, info AppInfo) string {
	return cmp.Or(config.AppName, info.Name, config.AppID)
}

func appIcon(config *feed.Config, info AppInfo) string {
	return cmp.Or(config.AppIcon, info.IconURL)
}

func FormatReview(r Review, config *feed.Config, info AppInfo) *Message {
	stars := Stars(r.Rating)
	pretext := fmt.Sprintf("New review for %s!", AppName(config, info))

	var text strings.Builder
	text.WriteString(r.Text)
	text.WriteString("\n_by ")
	text.WriteString(r.Author)
	if r.Date != "" {
		text.WriteString(", ")
		text.WriteString(r.Date)
	}
	if r.Link != "" {
		fmt.Fprintf(&text, " - <%s|%s>", r.Link, r.StoreName)
	} else {
		text.WriteString(" - ")
		text.WriteString(r.StoreName)
	}
	text.WriteString("_")

	return &Message{
		Username: config.BotUsername,
		IconURL:  config.BotIcon,
		Channel:  config.Channel,
		Attachments: []Attachment{
			{
				MrkdwnIn:   []string{"text", "pretext", "title"},
				Fallback:   fmt.Sprintf("%s: %s (%s): %s", pretext, r.Title, stars, r.Text),
				Pretext:    pretext,
				Color:      Color(r.Rating),
				AuthorName: stars,
				AuthorIcon: appIcon(config, info),
				Title:      r.Title,
				TitleLink:  r.Link,
				Text:       text.String(),
			},
		},
	}
}

// FormatWelcome announces that the destination now receives reviews for
// the configured app.
func FormatWelcome(config *feed.Config, info AppInfo) *Message {
	name := AppName(config, info)
	pretext := fmt.Sprintf("This channel will now receive %s reviews for ", config.Store.Label())

	return &Message{
		Username: config.BotUsername,
		IconURL:  config.BotIcon,
		Channel:  config.Channel,
		Attachments: []Attachment{
			{
				MrkdwnIn:   []string{"pretext", "author_name"},
				Fallback:   pretext + name,
				Pretext:    pretext,
				AuthorName: name,
				AuthorIcon: appIcon(config, info),
			},
		},
	}
}

// Package share sends articles out of the reader: to a telegram channel or to the system browser
package share

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/umputun/dailyplanet/app/models"
)

// TelegramSender is the part of telebot used to post messages
type TelegramSender interface {
	Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error)
}

// Telegram posts articles to a channel
type Telegram struct {
	Bot     TelegramSender
	Channel string
}

// NewTelegram init telegram client for the channel
func NewTelegram(token, apiURL, channel string, timeout time.Duration) (*Telegram, error) {
	if timeout == 0 {
		timeout = time.Second * 60
	}

	if token == "" {
		return nil, errors.New("empty telegram token")
	}
	if channel == "" {
		return nil, errors.New("empty telegram channel")
	}

	bot, err := tb.NewBot(tb.Settings{
		URL:    apiURL,
		Token:  token,
		Poller: &tb.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, errors.Wrap(err, "can't make telegram bot")
	}

	return &Telegram{Bot: bot, Channel: channel}, nil
}

// Share sends article as html message with a link on the title
func (t *Telegram) Share(_ context.Context, article models.Article) error {
	_, err := t.Bot.Send(
		recipient{chatID: t.Channel},
		t.messageHTML(article),
		tb.ModeHTML,
		tb.NoPreview,
	)
	if err != nil {
		return errors.Wrapf(err, "can't send to %s", t.Channel)
	}
	log.Printf("[INFO] shared %s to telegram %s", article.URL, t.Channel)
	return nil
}

// https://core.telegram.org/bots/api#html-style
func (t *Telegram) tagLinkOnlySupport(htmlText string) string {
	p := bluemonday.NewPolicy()
	p.AllowAttrs("href").OnElements("a")
	return html.UnescapeString(p.Sanitize(htmlText))
}

// messageHTML generates HTML message from the article
func (t *Telegram) messageHTML(article models.Article) string {
	// apparently bluemonday doesn't remove escaped HTML tags
	description := t.tagLinkOnlySupport(html.UnescapeString(article.Description))
	description = strings.TrimSpace(description)

	title := strings.TrimSpace(article.Title)
	messageHTML := description
	if title != "" {
		messageHTML = fmt.Sprintf("<a href=%q>%s</a>\n\n", article.URL, html.EscapeString(title)) + messageHTML
	}

	if article.Source != nil && article.Source.Name != "" {
		messageHTML += fmt.Sprintf("\n\n%s", html.EscapeString(article.Source.Name))
	}

	if title == "" {
		messageHTML += fmt.Sprintf("\n\n%s", article.URL)
	}

	return strings.TrimSpace(messageHTML)
}

type recipient struct {
	chatID string
}

func (r recipient) Recipient() string {
	if !strings.HasPrefix(r.chatID, "@") && !strings.HasPrefix(r.chatID, "-") {
		return "@" + r.chatID
	}

	return r.chatID
}

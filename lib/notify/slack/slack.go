package slack

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/slack-go/slack"

	"github.com/lepaya/data-snowflake-client/lib/config"
	"github.com/lepaya/data-snowflake-client/lib/notify"
)

// Slack rejects messages with more than 50 blocks.
const maxBlocks = 50

type Option func(*Notifier)

// WithAPIURL points the API client at another Slack endpoint, the URL must end with a slash.
func WithAPIURL(url string) Option {
	return func(n *Notifier) {
		n.apiURL = url
	}
}

// Notifier keeps a single status message per run. In API mode it is posted once and then updated in place:
// permanent messages accumulate, the latest temporary message is shown last until something replaces it.
// In webhook mode every message is posted on its own.
type Notifier struct {
	client     *slack.Client
	channel    string
	webhookURL string
	apiURL     string

	mu        sync.Mutex
	timestamp string
	permanent []slack.Block
	temporary slack.Block
}

func New(cfg config.Slack, opts ...Option) (*Notifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := &Notifier{channel: cfg.Channel, webhookURL: cfg.WebhookURL}
	for _, opt := range opts {
		opt(n)
	}

	if cfg.Token != "" {
		var clientOpts []slack.Option
		if n.apiURL != "" {
			clientOpts = append(clientOpts, slack.OptionAPIURL(n.apiURL))
		}
		n.client = slack.New(cfg.Token, clientOpts...)
	}

	return n, nil
}

func (n *Notifier) Notify(ctx context.Context, msg notify.Message) error {
	block := sectionBlock(msg)
	if n.webhookURL != "" {
		return slack.PostWebhookContext(ctx, n.webhookURL, &slack.WebhookMessage{
			Text:   render(msg),
			Blocks: &slack.Blocks{BlockSet: []slack.Block{block}},
		})
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.permanent)+2 > maxBlocks {
		// Start a new status message once the current one is full.
		slog.Debug("Slack message is full, starting a new one", slog.Int("blocks", len(n.permanent)))
		n.timestamp = ""
		n.permanent = nil
	}

	if msg.Temporary {
		n.temporary = block
	} else {
		n.permanent = append(n.permanent, block)
		n.temporary = nil
	}

	options := []slack.MsgOption{
		slack.MsgOptionBlocks(n.blocks()...),
		slack.MsgOptionText(render(msg), false),
	}

	if n.timestamp == "" {
		_, timestamp, err := n.client.PostMessageContext(ctx, n.channel, options...)
		if err != nil {
			return fmt.Errorf("failed to post slack message: %w", err)
		}

		n.timestamp = timestamp
		return nil
	}

	if _, _, _, err := n.client.UpdateMessageContext(ctx, n.channel, n.timestamp, options...); err != nil {
		return fmt.Errorf("failed to update slack message: %w", err)
	}

	return nil
}

func (n *Notifier) blocks() []slack.Block {
	blocks := slices.Clone(n.permanent)
	if n.temporary != nil {
		blocks = append(blocks, n.temporary)
	}
	return blocks
}

func render(msg notify.Message) string {
	switch msg.Severity {
	case notify.Error:
		return ":red_circle: " + msg.Text
	case notify.Warning:
		return ":warning: " + msg.Text
	}
	return msg.Text
}

func sectionBlock(msg notify.Message) slack.Block {
	// Section text is capped at 3000 characters.
	text := render(msg)
	if len(text) > 3000 {
		text = strings.ToValidUTF8(text[:2997], "") + "..."
	}

	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}

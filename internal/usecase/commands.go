package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ChannelPublisher/internal/domain"
	"ChannelPublisher/internal/ports"
)

const trendsShown = 5

const helpText = `🆘 CHANNEL PUBLISHER HELP

🎯 Content plan:
• 1 news post every 10 minutes
• Trend radar every 2 hours
• 4 scheduled columns a day

📋 Operator commands:
/news - look for fresh news now
/trends - run trend detection now
/generate [kind] - create a scheduled column
/stats - statistics
/help - this message`

const startText = `🤖 Crypto channel publisher

• Title translation
• Trend radar (every 2 hours)
• 4 daily columns
• Clean, readable posts

📋 Commands:
/stats - statistics
/news - find news
/trends - trend analysis
/generate - create content
/help - help`

const unavailableText = "⚠️ Could not complete that right now. Please try again later."

// CommandsDeps wires the operator command handlers.
type CommandsDeps struct {
	Detector  *TrendDetector
	Ingestor  *Ingestor
	Generator *Generator
	Stats     ports.StatsRepository
	Location  *time.Location
	Now       func() time.Time
	Logger    *slog.Logger
}

// Commands answers operator commands. Replies never carry error details.
type Commands struct {
	detector  *TrendDetector
	ingestor  *Ingestor
	generator *Generator
	stats     ports.StatsRepository
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

var _ ports.CommandHandler = (*Commands)(nil)

// NewCommands constructs the command surface shared by the bot and the CLI.
func NewCommands(deps CommandsDeps) *Commands {
	c := &Commands{
		detector:  deps.Detector,
		ingestor:  deps.Ingestor,
		generator: deps.Generator,
		stats:     deps.Stats,
		location:  orUTC(deps.Location),
		now:       deps.Now,
		logger:    deps.Logger,
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Handle dispatches one command; unknown names get the help text.
func (c *Commands) Handle(ctx context.Context, name string, args []string) string {
	switch strings.ToLower(strings.TrimPrefix(name, "/")) {
	case "start":
		return startText
	case "stats":
		return c.Stats(ctx)
	case "news":
		return c.News(ctx)
	case "trends":
		return c.Trends(ctx)
	case "generate":
		kind := ""
		if len(args) > 0 {
			kind = args[0]
		}
		return c.Generate(ctx, kind)
	default:
		return helpText
	}
}

// Stats renders the statistics view.
func (c *Commands) Stats(ctx context.Context) string {
	if c.stats == nil {
		return unavailableText
	}
	now := c.now()
	from, to := dayBounds(now, c.location)
	snap, err := c.stats.Stats(ctx, dayKey(now, c.location), from, to)
	if err != nil {
		c.log().Error("stats command failed", "error", err)
		return unavailableText
	}

	var b strings.Builder
	b.WriteString("📊 STATISTICS\n\n")
	b.WriteString("📈 Content:\n")
	fmt.Fprintf(&b, "• Total news: %d\n", snap.TotalItems)
	fmt.Fprintf(&b, "• Published: %d\n", snap.DeliveredItems)
	fmt.Fprintf(&b, "• News in queue: %d\n", snap.QueuedItems)
	fmt.Fprintf(&b, "• Scheduled in queue: %d\n\n", snap.QueuedScheduled)
	b.WriteString("🎯 Activity:\n")
	fmt.Fprintf(&b, "• Posts today: %d\n", snap.Today.PostsDelivered)
	fmt.Fprintf(&b, "• Trends today: %d\n", snap.TrendsToday)
	fmt.Fprintf(&b, "• Trends counted for %s: %d", snap.Today.Date, snap.Today.TrendsDetected)
	return b.String()
}

// News forces one ingest pass.
func (c *Commands) News(ctx context.Context) string {
	if c.ingestor == nil {
		return unavailableText
	}
	item, err := c.ingestor.Ingest(ctx, c.now())
	if err != nil {
		c.log().Error("news command failed", "error", err)
		return unavailableText
	}
	if item == nil {
		return "📭 No new news found"
	}
	return fmt.Sprintf("✅ Found fresh news (%s): %s\nIt will be published shortly.", item.Category, item.Title)
}

// Trends forces one detection pass.
func (c *Commands) Trends(ctx context.Context) string {
	if c.detector == nil {
		return unavailableText
	}
	trends, err := c.detector.Detect(ctx, c.now())
	if err != nil {
		c.log().Error("trends command failed", "error", err)
		return unavailableText
	}
	if len(trends) == 0 {
		return "📭 No significant trends detected"
	}

	var b strings.Builder
	b.WriteString("🎯 DETECTED TRENDS:\n\n")
	for i, t := range trends {
		if i == trendsShown {
			break
		}
		fmt.Fprintf(&b, "• %s: %d mentions\n", strings.ToUpper(t.Topic), t.Score)
	}
	b.WriteString("\n📊 Alerts will be published in the channel")
	return b.String()
}

// Generate queues an editorial post: the named kind, or the current slot when kind is empty.
func (c *Commands) Generate(ctx context.Context, kind string) string {
	if c.generator == nil {
		return unavailableText
	}
	now := c.now()

	if kind == "" {
		generated, ok, err := c.generator.Generate(ctx, now)
		if err != nil {
			c.log().Error("generate command failed", "error", err)
			return unavailableText
		}
		if !ok && generated != "" {
			return fmt.Sprintf("🕒 %s was already generated for this slot.", generated)
		}
		if !ok {
			return "🕒 Nothing is scheduled for this minute. Use /generate <kind> with one of: " + editorialKindList()
		}
		return fmt.Sprintf("✅ Generated %s. Check the publishing queue.", generated)
	}

	parsed, err := domain.ParseContentKind(strings.ToLower(kind))
	if err != nil || parsed == domain.KindTrendAlert {
		return "❓ Unknown kind. Use one of: " + editorialKindList()
	}
	if _, err := c.generator.GenerateKind(ctx, parsed, now); err != nil {
		c.log().Error("generate command failed", "kind", parsed, "error", err)
		return unavailableText
	}
	return fmt.Sprintf("✅ Generated %s. Check the publishing queue.", parsed)
}

func editorialKindList() string {
	names := make([]string, 0, len(domain.EditorialKinds))
	for _, k := range domain.EditorialKinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

func (c *Commands) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

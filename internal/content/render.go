package content

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ChannelPublisher/internal/domain"
)

// minSummaryLen is the shortest lead sentence worth printing under a title.
const minSummaryLen = 20

var banners = map[domain.Category]string{
	domain.CategoryBreaking: "🚨 BREAKING\n",
	domain.CategoryAnalysis: "🔍 ANALYSIS\n",
	domain.CategoryWarning:  "🔔 WARNING\n",
	domain.CategoryRegular:  "📰 ",
}

var titleTags = []string{"jasmy", "bitcoin", "ethereum"}

// Deliverable returns the text to send for a claimed queue row.
func Deliverable(d domain.Deliverable) string {
	switch {
	case d.Scheduled != nil:
		return d.Scheduled.Body
	case d.Item != nil:
		return NewsPost(*d.Item)
	}
	return ""
}

// NewsPost renders a discovered item as a channel post.
func NewsPost(item domain.DiscoveredItem) string {
	banner, ok := banners[item.Category]
	if !ok {
		banner = banners[domain.CategoryRegular]
	}

	var b strings.Builder
	b.WriteString(banner)
	b.WriteString(item.Title)

	if utf8.RuneCountInString(item.Summary) > minSummaryLen {
		b.WriteString("\n\n")
		b.WriteString(item.Summary)
	}

	b.WriteString("\n\n🔗 ")
	b.WriteString(item.ExternalID)

	b.WriteString("\n\n📚 ")
	b.WriteString(strings.ToUpper(item.Source))

	category := item.Category
	if category == "" {
		category = domain.CategoryRegular
	}
	b.WriteString("\n\n#")
	b.WriteString(string(category))

	lowerTitle := strings.ToLower(item.Title)
	for _, tag := range titleTags {
		if strings.Contains(lowerTitle, tag) {
			b.WriteString(" #")
			b.WriteString(tag)
		}
	}
	return b.String()
}

var trendNotes = map[string]string{
	"bitcoin":  "More Bitcoin chatter often comes ahead of a market move",
	"ethereum": "Rising interest in Ethereum often precedes network upgrades",
	"jasmy":    "Jasmy is drawing community attention, keep an eye on project news",
	"defi":     "Activity in the DeFi sector may signal a change of trend",
	"nft":      "The NFT market shows signs of recovery",
	"airdrop":  "Potential airdrops are being discussed, get your wallets ready",
}

// TrendBand names the intensity band for a mention count.
func TrendBand(score int) string {
	switch {
	case score < 5:
		return "🟢 WATCH"
	case score < 10:
		return "🟡 ATTENTION"
	default:
		return "🔴 TREND"
	}
}

// TrendAlert renders the post announcing a detected trend.
func TrendAlert(topic string, score int) string {
	note, ok := trendNotes[topic]
	if !ok {
		note = "The community is paying closer attention to this topic"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s is gaining traction\n\n", TrendBand(score), strings.ToUpper(topic))
	fmt.Fprintf(&b, "📊 Intensity: %d mentions/hour\n\n", score)
	b.WriteString(note)
	fmt.Fprintf(&b, "\n\n#trends #%s", topic)
	return b.String()
}

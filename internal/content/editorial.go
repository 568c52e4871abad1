package content

import (
	"fmt"
	"strconv"
	"strings"

	"ChannelPublisher/internal/domain"
)

const (
	moversShown     = 3
	volatileChange  = 5.0
	quoteAssetTrail = "USDT"
)

var hotTopicNotes = map[string]string{
	"bitcoin":  "Bitcoin still drives the whole market. A spike in discussion often comes before volatility.",
	"ethereum": "Ethereum underpins the DeFi and NFT ecosystems. Watch for network upgrades.",
	"jasmy":    "Jasmy shows growing community interest. Watch partnerships and adoption.",
	"defi":     "DeFi shows signs of recovery. Track TVL and new protocols.",
}

// MorningBriefing renders the morning market overview.
func MorningBriefing(market domain.MarketSnapshot) string {
	var b strings.Builder
	b.WriteString("🌅 MORNING BRIEFING\n\n")
	b.WriteString("💹 Key moves overnight:\n")
	for _, t := range market.TopMovers(moversShown) {
		fmt.Fprintf(&b, "%s %s: $%s (%s)\n", MoveEmoji(t.ChangePercent), BaseSymbol(t.Symbol), FormatPrice(t.Price), FormatChange(t.ChangePercent))
	}
	b.WriteString("\n🎯 Worth watching today:\n")
	b.WriteString("• Regulation news from Asia and the EU\n")
	b.WriteString("• Large wallet movements\n")
	b.WriteString("• Core protocol upgrades\n")
	b.WriteString("\n#morningbriefing #analysis")
	return b.String()
}

// MarketStats renders the midday statistics post.
func MarketStats(market domain.MarketSnapshot) string {
	var b strings.Builder
	b.WriteString("📊 MARKET STATISTICS\n\n")
	for _, line := range []string{
		"📈 Total Crypto Market Cap: $1.68T (+2.3%)",
		"🔥 Fear & Greed Index: 76 (Greed)",
		"💼 Bitcoin Dominance: 52.1%",
		"🌊 Altcoin Season Index: 45",
	} {
		fmt.Fprintf(&b, "• %s\n", line)
	}
	b.WriteString("\n📈 TOP-3 moves of the day:\n")
	for _, t := range market.TopMovers(moversShown) {
		fmt.Fprintf(&b, "%s %s: %s\n", MoveEmoji(t.ChangePercent), BaseSymbol(t.Symbol), FormatChange(t.ChangePercent))
	}
	b.WriteString("\n#statistics #market")
	return b.String()
}

// HotTopic renders the evening topic post; top may be nil when nothing was detected today.
func HotTopic(top *domain.TrendObservation) string {
	var b strings.Builder
	if top == nil {
		b.WriteString("🔥 HOT TOPIC OF THE DAY\n\n")
		b.WriteString("The market shows balanced activity today.\n")
		b.WriteString("📊 Main focus:\n")
		b.WriteString("• Macroeconomic factors\n")
		b.WriteString("• Institutional player moves\n")
		b.WriteString("• Network upgrades\n\n")
		b.WriteString("#analysis #market")
		return b.String()
	}

	note, ok := hotTopicNotes[top.Topic]
	if !ok {
		note = "Heightened community attention may signal a forming trend."
	}
	fmt.Fprintf(&b, "🔥 HOT TOPIC\n%s\n\n", strings.ToUpper(top.Topic))
	fmt.Fprintf(&b, "📊 Activity: %d mentions today\n\n", top.Score)
	b.WriteString("💡 Why it matters:\n")
	b.WriteString(note)
	fmt.Fprintf(&b, "\n\n#hottopic #%s", top.Topic)
	return b.String()
}

// DailySummary renders the end-of-day wrap-up.
func DailySummary(postsToday, trendsToday int, market domain.MarketSnapshot) string {
	activity := "moderate"
	if market.Volatile(volatileChange) {
		activity = "high"
	}

	var b strings.Builder
	b.WriteString("🎯 DAILY SUMMARY AND OUTLOOK\n\n")
	b.WriteString("📈 Today:\n")
	fmt.Fprintf(&b, "• News published: %d\n", postsToday)
	fmt.Fprintf(&b, "• Trends detected: %d\n", trendsToday)
	fmt.Fprintf(&b, "• Market activity: %s\n\n", activity)
	b.WriteString("🔮 Tomorrow:\n")
	b.WriteString("• Expect news from Asia\n")
	b.WriteString("• Focus on the DeFi sector\n")
	b.WriteString("• Possible surprises from the NFT market\n\n")
	b.WriteString("💎 Tip of the day:\n")
	b.WriteString("Diversify your portfolio and keep risk under control.\n\n")
	b.WriteString("#summary #outlook")
	return b.String()
}

// MoveEmoji maps a 24h change to its indicator.
func MoveEmoji(change float64) string {
	switch {
	case change > 5:
		return "🚀"
	case change > 2:
		return "📈"
	case change > 0:
		return "↗️"
	case change < -5:
		return "💥"
	case change < -2:
		return "📉"
	default:
		return "➡️"
	}
}

// FormatPrice prints sub-dollar prices with four decimals and the rest with two.
func FormatPrice(price float64) string {
	if price < 1 {
		return strconv.FormatFloat(price, 'f', 4, 64)
	}
	return strconv.FormatFloat(price, 'f', 2, 64)
}

// FormatChange prints a signed percentage with one decimal.
func FormatChange(change float64) string {
	if change > 0 {
		return fmt.Sprintf("+%.1f%%", change)
	}
	return fmt.Sprintf("%.1f%%", change)
}

// BaseSymbol drops the quote asset from a trading pair, BTCUSDT becomes BTC.
func BaseSymbol(symbol string) string {
	return strings.TrimSuffix(symbol, quoteAssetTrail)
}

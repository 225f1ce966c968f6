package insights

import (
	"fmt"
	"strings"

	"marketbrief/models"
)

// BuildPrompt renders one batch prompt embedding each ticker's key metrics.
// The "Tickers:" header doubles as the machine-readable ticker list for the
// simulated client. The instruction pins the output to a flat JSON object so
// ParseInsightResponse can decode it without per-model tweaks.
func BuildPrompt(batch []models.ScreenedRow, analyses map[string]*models.TickerAnalysis) string {
	var b strings.Builder

	tickers := make([]string, len(batch))
	for i, row := range batch {
		tickers[i] = row.Ticker
	}

	b.WriteString("你是一位美股市場分析師。請針對下列股票各撰寫一段 2-3 句的繁體中文短評，聚焦於當日異動的可能原因與技術面狀態。\n\n")
	fmt.Fprintf(&b, "Tickers: %s\n\n", strings.Join(tickers, ", "))

	for _, row := range batch {
		fmt.Fprintf(&b, "- %s (%s): 價格 $%s，漲跌 %+.2f%%",
			row.Ticker, row.Company, row.Price.StringFixed(2), row.Change)
		if a, ok := analyses[row.Ticker]; ok && a != nil {
			if a.DailyIndicators != nil && len(a.DailyIndicators.RSI14) > 0 {
				fmt.Fprintf(&b, "，RSI14 %.1f", a.DailyIndicators.RSI14[len(a.DailyIndicators.RSI14)-1])
			}
			if a.TrendAboveSMA200 {
				b.WriteString("，價格位於 SMA200 之上")
			} else {
				b.WriteString("，價格位於 SMA200 之下")
			}
			if len(a.Spikes) > 0 {
				fmt.Fprintf(&b, "，盤中偵測到 %d 次成交量異常", len(a.Spikes))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n請只回傳一個扁平的 JSON 物件，key 為股票代碼、value 為該股的繁體中文短評。不要使用 markdown 圍欄，不要附加任何其他文字。\n")

	return b.String()
}

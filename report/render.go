package report

import (
	"bytes"
	"fmt"
	"html/template"

	"marketbrief/models"
)

// reportTemplate lays out the full weekly report: run metadata, the screener
// summary table, one card per analyzed ticker, and the archive navigation.
// Charts are standalone artifacts embedded by iframe so dated snapshots keep
// rendering after later runs.
const reportTemplate = `<!DOCTYPE html>
<html lang="zh-Hant">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>📊 美股 AI 深度研究週報 {{.Snapshot.DateKey}}</title>
<style>
  body { font-family: "Helvetica Neue", Arial, "PingFang TC", "Microsoft JhengHei", sans-serif;
         margin: 0; background: #f5f6f8; color: #1f2430; }
  .wrap { max-width: 1100px; margin: 0 auto; padding: 24px 16px 64px; }
  h1 { font-size: 1.6em; margin-bottom: 4px; }
  .meta { color: #6b7280; font-size: 0.9em; margin-bottom: 24px; }
  table.summary { width: 100%; border-collapse: collapse; background: #fff;
                  box-shadow: 0 1px 3px rgba(0,0,0,.08); }
  table.summary th, table.summary td { padding: 8px 10px; border-bottom: 1px solid #e5e7eb;
                  text-align: left; font-size: 0.9em; }
  table.summary th { background: #111827; color: #fff; }
  .up { color: #d62728; font-weight: 600; }
  .down { color: #2ca02c; font-weight: 600; }
  .skipped { color: #9ca3af; }
  .card { background: #fff; margin-top: 28px; padding: 20px;
          box-shadow: 0 1px 3px rgba(0,0,0,.08); border-radius: 6px; }
  .card h2 { margin-top: 0; }
  .badge { display: inline-block; padding: 2px 10px; border-radius: 10px;
           font-size: 0.8em; color: #fff; vertical-align: middle; }
  .badge.bull { background: #d62728; }
  .badge.bear { background: #2ca02c; }
  .narrative { background: #f9fafb; border-left: 4px solid #2563eb;
               padding: 12px 14px; margin: 14px 0; line-height: 1.7; }
  iframe.chart { width: 100%; height: 440px; border: 0; margin-top: 10px; }
  .spikes { font-size: 0.88em; color: #4b5563; }
  .archive { margin-top: 40px; }
  .archive a { margin-right: 12px; }
  a.top { position: fixed; right: 18px; bottom: 18px; background: #111827;
          color: #fff; padding: 8px 12px; border-radius: 20px; text-decoration: none; }
</style>
</head>
<body id="top">
<div class="wrap">
<h1>📊 美股 AI 深度研究週報</h1>
<div class="meta">報告日期 {{.Snapshot.GeneratedAt.Format "2006-01-02 15:04"}} ・ 本期收錄 {{len .Snapshot.Entries}} 檔標的</div>

<table class="summary">
<tr><th>代碼</th><th>公司</th><th>產業</th><th>市值</th><th>本益比</th><th>價格</th><th>漲跌幅</th><th>成交量</th></tr>
{{range .Snapshot.Entries}}
<tr{{if not .Analysis}} class="skipped"{{end}}>
  <td>{{if .Analysis}}<a href="#t-{{.Row.Ticker}}">{{.Row.Ticker}}</a>{{else}}{{.Row.Ticker}}{{end}}</td>
  <td>{{.Row.Company}}</td>
  <td>{{.Row.Sector}} / {{.Row.Industry}}</td>
  <td>{{.Row.MarketCap}}</td>
  <td>{{.Row.PERatio}}</td>
  <td>${{.Row.Price.StringFixed 2}}</td>
  <td class="{{if ge .Row.Change 0.0}}up{{else}}down{{end}}">{{printf "%+.2f%%" .Row.Change}}</td>
  <td>{{.Row.Volume}}</td>
</tr>
{{end}}
</table>

{{range .Snapshot.Entries}}{{if .Analysis}}
<div class="card" id="t-{{.Row.Ticker}}">
<h2>{{.Row.Ticker}} {{.Row.Company}}
{{if .Analysis.TrendAboveSMA200}}<span class="badge bull">SMA200 之上</span>{{else}}<span class="badge bear">SMA200 之下</span>{{end}}
</h2>
<div class="narrative">{{.Narrative}}</div>
{{with index $.Charts .Row.Ticker}}
{{if .Daily}}<iframe class="chart" src="charts/{{.Daily}}" loading="lazy"></iframe>{{end}}
{{if .Intraday}}<iframe class="chart" src="charts/{{.Intraday}}" loading="lazy"></iframe>{{end}}
{{if .Extended}}<iframe class="chart" src="charts/{{.Extended}}" loading="lazy"></iframe>{{end}}
{{end}}
{{if .Analysis.Spikes}}
<div class="spikes">盤中成交量異常：
{{range .Analysis.Spikes}}
  {{.Timestamp.Format "15:04"}} {{if eq .Direction "buy"}}▲ BUY{{else}}▼ SELL{{end}} ({{printf "%.1f" .Ratio}}x)
{{end}}
</div>
{{end}}
</div>
{{end}}{{end}}

{{if .Snapshot.ArchiveDates}}
<div class="archive">
<h3>歷史報告</h3>
{{range .Snapshot.ArchiveDates}}<a href="report_{{.}}.html">{{.}}</a>{{end}}
</div>
{{end}}

<a class="top" href="#top">回頂部</a>
</div>
</body>
</html>
`

type renderContext struct {
	Snapshot *models.ReportSnapshot
	Charts   map[string]ChartSet
}

var reportTmpl = template.Must(template.New("report").Parse(reportTemplate))

// RenderSnapshot produces the full report HTML for one run. charts maps a
// ticker to its artifact names; tickers without an entry simply render
// without embedded charts.
func RenderSnapshot(snapshot *models.ReportSnapshot, charts map[string]ChartSet) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, renderContext{Snapshot: snapshot, Charts: charts}); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

package insights

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"marketbrief/models"
)

// scriptedLLM returns its responses in order; entries with a non-nil err
// fail that call instead.
type scriptedLLM struct {
	script []scriptedReply
	calls  int
}

type scriptedReply struct {
	response string
	err      error
}

func (m *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if len(m.script) == 0 {
		return "{}", nil
	}
	reply := m.script[0]
	if len(m.script) > 1 {
		m.script = m.script[1:]
	}
	return reply.response, reply.err
}

// sleepRecorder captures sleep requests instead of blocking
type sleepRecorder struct {
	slept []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.slept = append(r.slept, d)
}

func testRows(tickers ...string) []models.ScreenedRow {
	rows := make([]models.ScreenedRow, len(tickers))
	for i, ticker := range tickers {
		rows[i] = models.ScreenedRow{
			Ticker:  ticker,
			Company: ticker + " Inc.",
			Price:   decimal.NewFromFloat(123.45),
			Change:  12.3,
		}
	}
	return rows
}

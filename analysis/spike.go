package analysis

import (
	"sort"

	"marketbrief/models"
)

// DetectSpikes finds intraday bars whose volume exceeds the rolling baseline
// by more than threshold. volAvg must be aligned 1:1 with bars (the
// VolumeAvg series from ComputeIndicators). Bars with a zero baseline, e.g.
// a halted stock, never qualify. The result is ordered by descending
// magnitude ratio and capped at topK so the renderer has "most significant
// first" for labeling priority.
func DetectSpikes(bars []models.Bar, volAvg []float64, threshold float64, topK int) []models.SpikeEvent {
	if len(bars) == 0 || len(volAvg) != len(bars) || topK <= 0 {
		return nil
	}

	events := make([]models.SpikeEvent, 0, 8)
	for i, b := range bars {
		if volAvg[i] <= 0 {
			continue
		}
		ratio := float64(b.Volume) / volAvg[i]
		if ratio <= threshold {
			continue
		}
		direction := models.SpikeSell
		if b.Close.GreaterThan(b.Open) {
			direction = models.SpikeBuy
		}
		events = append(events, models.SpikeEvent{
			Timestamp: b.Timestamp,
			BarIndex:  i,
			Direction: direction,
			Ratio:     ratio,
			Volume:    b.Volume,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Ratio != events[j].Ratio {
			return events[i].Ratio > events[j].Ratio
		}
		return events[i].BarIndex < events[j].BarIndex
	})

	if len(events) > topK {
		events = events[:topK]
	}
	return events
}

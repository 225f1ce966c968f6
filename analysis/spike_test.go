package analysis

import (
	"testing"

	"github.com/shopspring/decimal"

	"marketbrief/models"
)

func TestDetectSpikes_SingleAnomalousBar(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	bars := testBars(closes, 100)
	bars[10].Volume = 1000
	// close > open marks buying pressure
	bars[10].Open = decimal.NewFromFloat(99)
	bars[10].Close = decimal.NewFromFloat(101)

	volAvg := SMASeries(Volumes(bars), 5)
	spikes := DetectSpikes(bars, volAvg, 3, 10)

	if len(spikes) != 1 {
		t.Fatalf("expected 1 spike, got %d", len(spikes))
	}
	if spikes[0].BarIndex != 10 {
		t.Errorf("expected spike at bar 10, got %d", spikes[0].BarIndex)
	}
	if spikes[0].Direction != models.SpikeBuy {
		t.Errorf("expected buy direction, got %s", spikes[0].Direction)
	}
	if spikes[0].Volume != 1000 {
		t.Errorf("expected volume 1000, got %d", spikes[0].Volume)
	}
	// baseline over bars 6..10 is (4*100+1000)/5 = 280
	want := 1000.0 / 280.0
	if !almostEqual(spikes[0].Ratio, want) {
		t.Errorf("expected ratio %.4f, got %.4f", want, spikes[0].Ratio)
	}
}

func TestDetectSpikes_SellDirection(t *testing.T) {
	bars := testBars([]float64{100, 100, 100, 100, 100, 100}, 100)
	bars[5].Volume = 2000
	bars[5].Open = decimal.NewFromFloat(101)
	bars[5].Close = decimal.NewFromFloat(99)

	volAvg := SMASeries(Volumes(bars), 5)
	spikes := DetectSpikes(bars, volAvg, 3, 10)

	if len(spikes) != 1 {
		t.Fatalf("expected 1 spike, got %d", len(spikes))
	}
	if spikes[0].Direction != models.SpikeSell {
		t.Errorf("expected sell direction, got %s", spikes[0].Direction)
	}
}

func TestDetectSpikes_ThresholdIsStrict(t *testing.T) {
	bars := testBars([]float64{100, 100}, 100)
	bars[1].Volume = 300
	volAvg := SMASeries(Volumes(bars), 2)

	// ratio at bar 1 is 300/200 = 1.5 exactly
	if spikes := DetectSpikes(bars, volAvg, 1.5, 10); len(spikes) != 0 {
		t.Errorf("ratio equal to threshold must not qualify, got %d spikes", len(spikes))
	}
	if spikes := DetectSpikes(bars, volAvg, 1.49, 10); len(spikes) != 1 {
		t.Errorf("ratio above threshold must qualify, got %d spikes", len(spikes))
	}
}

func TestDetectSpikes_ConstantVolume(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	bars := testBars(closes, 500)

	volAvg := SMASeries(Volumes(bars), 5)
	if spikes := DetectSpikes(bars, volAvg, 3, 10); len(spikes) != 0 {
		t.Errorf("expected no spikes for constant volume, got %d", len(spikes))
	}
}

func TestDetectSpikes_ZeroBaseline(t *testing.T) {
	bars := testBars([]float64{100, 100, 100}, 0)

	volAvg := SMASeries(Volumes(bars), 5)
	if spikes := DetectSpikes(bars, volAvg, 3, 10); len(spikes) != 0 {
		t.Errorf("zero baseline must never qualify, got %d spikes", len(spikes))
	}
}

func TestDetectSpikes_SortedAndCapped(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	bars := testBars(closes, 100)
	bars[10].Volume = 800
	bars[20].Volume = 2000
	bars[30].Volume = 1200

	volAvg := SMASeries(Volumes(bars), 5)
	spikes := DetectSpikes(bars, volAvg, 2, 2)

	if len(spikes) != 2 {
		t.Fatalf("expected cap at 2 spikes, got %d", len(spikes))
	}
	if spikes[0].BarIndex != 20 {
		t.Errorf("expected largest spike first (bar 20), got bar %d", spikes[0].BarIndex)
	}
	if spikes[1].BarIndex != 30 {
		t.Errorf("expected second largest spike (bar 30), got bar %d", spikes[1].BarIndex)
	}
	if spikes[0].Ratio <= spikes[1].Ratio {
		t.Errorf("expected descending ratio order, got %.2f then %.2f", spikes[0].Ratio, spikes[1].Ratio)
	}
}

func TestDetectSpikes_MisalignedInput(t *testing.T) {
	bars := testBars([]float64{100, 100}, 100)
	if spikes := DetectSpikes(bars, []float64{100}, 3, 10); spikes != nil {
		t.Errorf("expected nil for misaligned baseline, got %v", spikes)
	}
}

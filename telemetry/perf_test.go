package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseEvaluate)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseMoves)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()

	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration")
	}
	if _, ok := stats.PhaseAvg[PhaseEvaluate]; !ok {
		t.Error("expected evaluate phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseMoves]; !ok {
		t.Error("expected moves phase to be tracked")
	}
	if stats.MinStepDuration > stats.MaxStepDuration {
		t.Errorf("min %v > max %v", stats.MinStepDuration, stats.MaxStepDuration)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseDeaths)
		pc.EndStep()
	}

	if pc.sampleCount != 5 {
		t.Errorf("sampleCount = %d, want 5", pc.sampleCount)
	}

	stats := pc.Stats()
	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration after window filled")
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseMoves)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseReproduce)
		time.Sleep(2 * time.Millisecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.PhasePct[PhaseReproduce] <= stats.PhasePct[PhaseMoves] {
		t.Errorf("expected reproduce (%v%%) > moves (%v%%)",
			stats.PhasePct[PhaseReproduce], stats.PhasePct[PhaseMoves])
	}

	row := stats.ToCSV(4)
	if row.Generation != 4 || row.ReproducePct != stats.PhasePct[PhaseReproduce] {
		t.Errorf("ToCSV() = %+v", row)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgStepDuration != 0 {
		t.Error("expected zero avg step duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

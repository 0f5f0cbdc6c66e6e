package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSurvivalBreakthrough BookmarkType = "survival_breakthrough"
	BookmarkSurvivalCrash        BookmarkType = "survival_crash"
	BookmarkCladeFixation        BookmarkType = "clade_fixation"
	BookmarkExhaustion           BookmarkType = "exhaustion"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Generation  int          `csv:"generation" json:"generation"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting generations.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	bestSurvival float64
	fixated      bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]GenerationStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	var bookmarks []Bookmark

	if stats.Reproducers == 0 {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkExhaustion,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("No reproducers among %d survivors", stats.Alive),
		})
	}

	if len(bd.getHistory()) >= 3 {
		if b := bd.checkSurvivalBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSurvivalCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	if b := bd.checkCladeFixation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	if r := stats.SurvivalRate(); r > bd.bestSurvival {
		bd.bestSurvival = r
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) meanSurvival() float64 {
	history := bd.getHistory()
	var sum float64
	for _, h := range history {
		sum += h.SurvivalRate()
	}
	return sum / float64(len(history))
}

// checkSurvivalBreakthrough fires when survival beats both the best seen
// so far and the rolling mean by ten points.
func (bd *BookmarkDetector) checkSurvivalBreakthrough(stats GenerationStats) *Bookmark {
	rate := stats.SurvivalRate()
	avg := bd.meanSurvival()
	if rate <= bd.bestSurvival || rate < avg+0.10 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSurvivalBreakthrough,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Survival %.1f%% beats best %.1f%% (mean %.1f%%)", rate*100, bd.bestSurvival*100, avg*100),
	}
}

// checkSurvivalCrash fires when survival falls below half the rolling mean.
func (bd *BookmarkDetector) checkSurvivalCrash(stats GenerationStats) *Bookmark {
	rate := stats.SurvivalRate()
	avg := bd.meanSurvival()
	if avg == 0 || rate >= avg*0.5 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSurvivalCrash,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Survival crashed to %.1f%% from mean %.1f%%", rate*100, avg*100),
	}
}

// checkCladeFixation fires once, the first time the dominant clade holds
// every survivor.
func (bd *BookmarkDetector) checkCladeFixation(stats GenerationStats) *Bookmark {
	if bd.fixated || stats.Alive == 0 || stats.DominantShare < 1 {
		return nil
	}
	bd.fixated = true
	return &Bookmark{
		Type:        BookmarkCladeFixation,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Clade %d holds all %d survivors", stats.DominantClade, stats.Alive),
	}
}

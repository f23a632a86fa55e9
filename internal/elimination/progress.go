package elimination

import (
	"sort"
	"time"

	"github.com/aubrey-sherman/baby-bootcamp/internal/model"
)

// BlockProgress summarizes how a feeding block is trending. Baseline fields
// are populated only for the block currently being eliminated.
type BlockProgress struct {
	BlockID        string
	Number         int
	IsEliminating  bool
	EntryCount     int
	TotalOunces    float64
	AverageOunces  float64
	BaselineOunces float64
	ReductionPct   float64
	DaysInProgress int
}

// Summarize reports per-block volume totals ordered by block number. The
// eliminating block additionally carries its baseline, the percent reduction
// of the current average against that baseline, and the number of whole days
// since elimination began.
func Summarize(blocks []model.FeedingBlock, now time.Time) []BlockProgress {
	out := make([]BlockProgress, 0, len(blocks))
	for _, block := range blocks {
		p := BlockProgress{
			BlockID:       block.ID,
			Number:        block.Number,
			IsEliminating: block.IsEliminating,
		}
		for _, entry := range block.FeedingEntries {
			p.EntryCount++
			p.TotalOunces += entry.VolumeInOunces
		}
		if p.EntryCount > 0 {
			p.AverageOunces = p.TotalOunces / float64(p.EntryCount)
		}
		if block.IsEliminating {
			if block.BaselineVolume != nil {
				p.BaselineOunces = *block.BaselineVolume
				if p.BaselineOunces > 0 && p.EntryCount > 0 {
					p.ReductionPct = (p.BaselineOunces - p.AverageOunces) / p.BaselineOunces * 100
				}
			}
			if block.EliminationStartDate != nil && now.After(*block.EliminationStartDate) {
				p.DaysInProgress = int(now.Sub(*block.EliminationStartDate).Hours() / 24)
			}
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

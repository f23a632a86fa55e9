package model

import "time"

// FeedingEntry is one recorded feeding time and volume for a block on a
// specific day. Times are stored and transmitted in UTC; display conversion
// happens in the timezone package.
type FeedingEntry struct {
	ID             string    `json:"id"`
	BlockID        string    `json:"blockId"`
	FeedingTime    time.Time `json:"feedingTime"`
	VolumeInOunces float64   `json:"volumeInOunces"`
}

// FeedingBlock is a numbered recurring feeding slot tracked across days.
// Numbers are dense and sequential (1..N) across a user's blocks; the server
// owns renumbering on deletion. At most one block may be eliminating at a
// time.
type FeedingBlock struct {
	ID                   string         `json:"id"`
	Number               int            `json:"number"`
	IsEliminating        bool           `json:"isEliminating"`
	EliminationStartDate *time.Time     `json:"eliminationStartDate,omitempty"`
	BaselineVolume       *float64       `json:"baselineVolume,omitempty"`
	FeedingEntries       []FeedingEntry `json:"feedingEntries"`
}

type UserProfile struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	BabyName  string `json:"babyName"`
}

type RegisterParams struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	BabyName  string `json:"babyName"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Clone returns a deep copy of the block, including its entries.
func (b FeedingBlock) Clone() FeedingBlock {
	out := b
	if b.EliminationStartDate != nil {
		d := *b.EliminationStartDate
		out.EliminationStartDate = &d
	}
	if b.BaselineVolume != nil {
		v := *b.BaselineVolume
		out.BaselineVolume = &v
	}
	if b.FeedingEntries != nil {
		out.FeedingEntries = make([]FeedingEntry, len(b.FeedingEntries))
		copy(out.FeedingEntries, b.FeedingEntries)
	}
	return out
}

// CloneBlocks deep-copies a block set. Used for pre-save snapshots and for
// handing callers a view they cannot mutate underneath the manager.
func CloneBlocks(blocks []FeedingBlock) []FeedingBlock {
	if blocks == nil {
		return nil
	}
	out := make([]FeedingBlock, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}

package ingest

import (
	"sort"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/domain/punch"
)

// Classifier assigns a direction to each bound event. Implementations must
// not mutate the input slice.
type Classifier interface {
	Classify(events []punch.ClassifiedEvent) []punch.ClassifiedEvent
}

// CodeClassifier maps device punch codes onto directions. Events without a
// code, or with a code in neither set, stay OTHER.
type CodeClassifier struct {
	inCodes  map[int]struct{}
	outCodes map[int]struct{}
}

func NewCodeClassifier(inCodes, outCodes []int) *CodeClassifier {
	c := &CodeClassifier{
		inCodes:  make(map[int]struct{}, len(inCodes)),
		outCodes: make(map[int]struct{}, len(outCodes)),
	}
	for _, code := range inCodes {
		c.inCodes[code] = struct{}{}
	}
	for _, code := range outCodes {
		c.outCodes[code] = struct{}{}
	}
	return c
}

func (c *CodeClassifier) Classify(events []punch.ClassifiedEvent) []punch.ClassifiedEvent {
	out := make([]punch.ClassifiedEvent, len(events))
	copy(out, events)

	for i := range out {
		out[i].Direction = punch.DirectionOther
		if out[i].PunchCode == nil {
			continue
		}
		if _, ok := c.inCodes[*out[i].PunchCode]; ok {
			out[i].Direction = punch.DirectionIn
		} else if _, ok := c.outCodes[*out[i].PunchCode]; ok {
			out[i].Direction = punch.DirectionOut
		}
	}
	return out
}

// PositionalClassifier ignores punch codes. Within each (user, shift day)
// group, ordered by time, the first punch is IN, the last is OUT, and
// everything between is OTHER. A single punch counts as IN.
type PositionalClassifier struct{}

func NewPositionalClassifier() *PositionalClassifier {
	return &PositionalClassifier{}
}

func (c *PositionalClassifier) Classify(events []punch.ClassifiedEvent) []punch.ClassifiedEvent {
	out := make([]punch.ClassifiedEvent, len(events))
	copy(out, events)

	type groupKey struct {
		userID    string
		shiftDate int64
	}
	groups := make(map[groupKey][]int)
	for i := range out {
		key := groupKey{userID: out[i].UserID, shiftDate: out[i].ShiftDate.Unix()}
		groups[key] = append(groups[key], i)
	}

	for _, idxs := range groups {
		sort.Slice(idxs, func(a, b int) bool {
			return out[idxs[a]].Timestamp.Before(out[idxs[b]].Timestamp)
		})
		for pos, i := range idxs {
			switch pos {
			case 0:
				out[i].Direction = punch.DirectionIn
			case len(idxs) - 1:
				out[i].Direction = punch.DirectionOut
			default:
				out[i].Direction = punch.DirectionOther
			}
		}
	}
	return out
}

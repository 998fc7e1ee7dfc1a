package models

import (
	"math"
	"time"
)

type FreshnessBand int

const (
	BandFresh FreshnessBand = iota
	BandGood
	BandReviewSoon
	BandStale
)

var AllBands = []FreshnessBand{BandFresh, BandGood, BandReviewSoon, BandStale}

func (b FreshnessBand) String() string {
	switch b {
	case BandFresh:
		return "fresh"
	case BandGood:
		return "good"
	case BandReviewSoon:
		return "review_soon"
	default:
		return "stale"
	}
}

// BandPolicy holds the inclusive upper bound, in days, of each band but
// the last.
type BandPolicy struct {
	FreshDays      int
	GoodDays       int
	ReviewSoonDays int
}

var DefaultBandPolicy = BandPolicy{FreshDays: 7, GoodDays: 30, ReviewSoonDays: 90}

func (p BandPolicy) Classify(daysSince int) FreshnessBand {
	switch {
	case daysSince <= p.FreshDays:
		return BandFresh
	case daysSince <= p.GoodDays:
		return BandGood
	case daysSince <= p.ReviewSoonDays:
		return BandReviewSoon
	default:
		return BandStale
	}
}

const msPerDay = 24 * 60 * 60 * 1000

// DaysSince returns the number of whole days between the epoch-seconds
// timestamp ts and now.
func DaysSince(ts int64, now time.Time) int {
	return int(math.Floor(float64(now.UnixMilli()-ts*1000) / msPerDay))
}

type BandColor struct {
	Background string
	Border     string
}

var bandColors = map[FreshnessBand]BandColor{
	BandFresh:      {Background: "rgba(76, 175, 80, 0.2)", Border: "#4CAF50"},
	BandGood:       {Background: "rgba(255, 193, 7, 0.2)", Border: "#FFC107"},
	BandReviewSoon: {Background: "rgba(185, 28, 28, 0.2)", Border: "#B91C1C"},
	BandStale:      {Background: "rgba(141, 110, 99, 0.2)", Border: "#8D6E63"},
}

func (b FreshnessBand) Colors() BandColor {
	return bandColors[b]
}

// BandCounts is the per-band summary shown by the popup.
type BandCounts struct {
	Total      int    `json:"totalProblems"`
	Fresh      int    `json:"fresh"`
	Good       int    `json:"good"`
	ReviewSoon int    `json:"reviewSoon"`
	NeedReview int    `json:"needReview"`
	Username   string `json:"username,omitempty"`
	LastUpdate int64  `json:"lastUpdated,omitempty"`
}

func (c BandCounts) Of(b FreshnessBand) int {
	switch b {
	case BandFresh:
		return c.Fresh
	case BandGood:
		return c.Good
	case BandReviewSoon:
		return c.ReviewSoon
	default:
		return c.NeedReview
	}
}

func CountBands(s *FreshnessSnapshot, policy BandPolicy, now time.Time) BandCounts {
	var c BandCounts
	if s == nil {
		return c
	}
	c.Username = s.Username
	c.LastUpdate = s.LastUpdated
	c.Total = len(s.Problems)
	for _, p := range s.Problems {
		switch policy.Classify(DaysSince(p.Timestamp, now)) {
		case BandFresh:
			c.Fresh++
		case BandGood:
			c.Good++
		case BandReviewSoon:
			c.ReviewSoon++
		default:
			c.NeedReview++
		}
	}
	return c
}

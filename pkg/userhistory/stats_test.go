package userhistory

import "testing"

func TestWordStatScoreIncreasesWithCount(t *testing.T) {
	now := uint32(1000)
	low := WordStat{Freq: 1, LastUsed: now}
	high := WordStat{Freq: 100, LastUsed: now}
	if high.Score(now) <= low.Score(now) {
		t.Fatalf("expected score to increase with count at fixed age: low=%d high=%d", low.Score(now), high.Score(now))
	}
}

func TestWordStatScoreDecreasesWithAge(t *testing.T) {
	recent := WordStat{Freq: 10, LastUsed: 1000}
	stale := WordStat{Freq: 10, LastUsed: 0}
	now := uint32(1000)
	if stale.Score(now) >= recent.Score(now) {
		t.Fatalf("expected score to decrease with age at fixed count: recent=%d stale=%d", recent.Score(now), stale.Score(now))
	}
}

func TestWordStatAcceptBonus(t *testing.T) {
	now := uint32(1000)
	base := WordStat{Freq: 5, LastUsed: now}
	accepted := WordStat{Freq: 5, LastUsed: now, Accept: 2}
	if accepted.Score(now) <= base.Score(now) {
		t.Fatalf("expected accept bonus to raise score: base=%d accepted=%d", base.Score(now), accepted.Score(now))
	}
}

func TestEdgeStatNoAcceptBonus(t *testing.T) {
	// EdgeStat has no accept-style bonus field at all; its score depends
	// only on count and age, same formula as WordStat's bonus=0 case.
	now := uint32(1000)
	e := EdgeStat{Count: 5, LastUsed: now}
	w := WordStat{Freq: 5, LastUsed: now}
	if e.Score(now) != w.Score(now) {
		t.Fatalf("expected EdgeStat and bonus-less WordStat to score identically: edge=%d word=%d", e.Score(now), w.Score(now))
	}
}

func TestScoreClampedToUint16Range(t *testing.T) {
	now := uint32(1000)
	huge := WordStat{Freq: 1 << 30, LastUsed: now, Accept: 1 << 30}
	if got := huge.Score(now); got != 65535 {
		t.Fatalf("expected score to clamp to 65535, got %d", got)
	}
}

func TestScoreRepeatedLearnAtSameSecondIncreases(t *testing.T) {
	now := uint32(5000)
	var w WordStat
	w.Freq = 1
	w.LastUsed = now
	first := w.Score(now)
	w.Freq++
	second := w.Score(now)
	if second <= first {
		t.Fatalf("expected repeated observation at the same instant to strictly increase score: first=%d second=%d", first, second)
	}
}

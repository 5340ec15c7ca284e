// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package irv

import "errors"

// ErrNoCandidates is returned when Resolve is called with an empty catalog.
var ErrNoCandidates = errors.New("irv: candidate catalog is empty")

// Result is the outcome of one tabulation. Exactly one of Winner / NoVotes
// is meaningful: NoVotes is set when the ballot set was empty, otherwise
// Winner holds a member of the original candidate catalog.
type Result struct {
	Winner  string  `json:"winner,omitempty"`
	NoVotes bool    `json:"no_votes,omitempty"`
	Rounds  []Round `json:"rounds,omitempty"`
}

// Round records the first-preference tallies of one elimination round and
// the candidates removed at its end. The round that produced a majority
// winner has no eliminations.
type Round struct {
	Tallies    map[string]int `json:"tallies"`
	Eliminated []string       `json:"eliminated,omitempty"`
}

// Resolve runs instant-runoff tabulation over the given candidate catalog
// and ballots. Each ballot is a ranking of candidate identifiers, best
// first. Ballots are tolerant inputs: identifiers outside the catalog are
// ignored, duplicates match on first occurrence only, and omissions are
// allowed (the caller may enforce stricter rules at its own boundary).
//
// Candidates are eliminated round by round: the first preference of each
// ballot among the still-standing candidates is tallied, a candidate whose
// tally strictly exceeds half the ORIGINAL ballot count wins immediately,
// and otherwise every candidate tied for the lowest tally is removed at
// once. Ballots whose ranked candidates are all eliminated stop counting
// toward any tally, but the majority denominator never shrinks.
//
// If a round eliminates every remaining candidate (a full tie at the
// bottom), the first of that group in catalog order is returned rather
// than no winner. This tie-break is part of the contract.
//
// Resolve never mutates its arguments and is safe to call concurrently.
func Resolve(candidates []string, ballots [][]string) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}
	if len(ballots) == 0 {
		return Result{NoVotes: true}, nil
	}

	// Working set in catalog order. Duplicate identifiers collapse to
	// their first occurrence (identity is the identifier itself).
	working := make([]string, 0, len(candidates))
	standing := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if !standing[c] {
			standing[c] = true
			working = append(working, c)
		}
	}

	// The majority denominator is fixed before round one; ballots that
	// exhaust in later rounds still count toward it.
	threshold := float64(len(ballots)) / 2

	var rounds []Round

	for {
		// Last candidate standing wins outright.
		if len(working) == 1 {
			return Result{Winner: working[0], Rounds: rounds}, nil
		}

		// One vote per ballot: its first preference still standing.
		tallies := make(map[string]int, len(working))
		for _, c := range working {
			tallies[c] = 0
		}
		for _, ballot := range ballots {
			for _, choice := range ballot {
				if standing[choice] {
					tallies[choice]++
					break
				}
			}
		}

		// Strict majority ends the tabulation. At most one candidate can
		// exceed the threshold, so scan order cannot change the result.
		for _, c := range working {
			if float64(tallies[c]) > threshold {
				rounds = append(rounds, Round{Tallies: tallies})
				return Result{Winner: c, Rounds: rounds}, nil
			}
		}

		// Everyone tied for the lowest tally leaves in the same round.
		min := tallies[working[0]]
		for _, c := range working[1:] {
			if tallies[c] < min {
				min = tallies[c]
			}
		}

		var eliminated, next []string
		for _, c := range working {
			if tallies[c] == min {
				eliminated = append(eliminated, c)
			} else {
				next = append(next, c)
			}
		}
		rounds = append(rounds, Round{Tallies: tallies, Eliminated: eliminated})

		// Full tie at the bottom empties the working set; fall back to
		// the first of the just-eliminated group in catalog order.
		if len(next) == 0 {
			return Result{Winner: eliminated[0], Rounds: rounds}, nil
		}

		for _, c := range eliminated {
			delete(standing, c)
		}
		working = next
	}
}

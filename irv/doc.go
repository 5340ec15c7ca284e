// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package irv implements instant-runoff (ranked-choice) tabulation.

# Tabulation

Resolve is a pure function from a candidate catalog and a set of ranked
ballots to a single winner:

	result, err := irv.Resolve(candidateIDs, rankings)

It performs no I/O, holds no state between calls, and never mutates its
inputs, so it is safe to invoke concurrently on independent data.

# Algorithm

Elimination rounds over a shrinking working set:

 1. One candidate left → winner.
 2. Tally each ballot's first preference among still-standing candidates.
 3. A tally strictly above half the original ballot count wins immediately.
 4. Otherwise all candidates tied for the lowest tally are eliminated
    together.
 5. If that empties the working set, the first of the eliminated group in
    catalog order wins (deterministic fallback).

Exhausted ballots (every ranked candidate already eliminated) contribute no
tally but still count toward the majority denominator.

# Edge Cases

  - Empty catalog → ErrNoCandidates.
  - Empty ballot set → Result with NoVotes set, no error.
  - Ballot entries outside the catalog are ignored; duplicates match on
    first occurrence; partial rankings are allowed.

# Audit Trail

Result.Rounds records per-round tallies and eliminations so callers can
persist and display how the winner emerged. The trail is derived output
only; it never influences the winner.
*/
package irv

package utils

import (
	"fmt"
	"sync"
)

// VoteState counts bakeoff wins per backend and tracks which backend, if
// any, holds the vote for the current clip. A mutex serializes vote, retract
// and reset events.
type VoteState struct {
	mu     sync.Mutex
	order  []string
	wins   map[string]int
	winner string
}

// Standing is one row of the leaderboard.
type Standing struct {
	Backend string `json:"backend"`
	Wins    int    `json:"wins"`
}

func NewVoteState(backendIDs ...string) *VoteState {
	v := &VoteState{wins: make(map[string]int, len(backendIDs))}
	for _, id := range backendIDs {
		if _, ok := v.wins[id]; ok {
			continue
		}
		v.wins[id] = 0
		v.order = append(v.order, id)
	}
	return v
}

// CastVote makes backendID the current winner. A vote that moves from one
// backend to another takes the win away from the previous backend first.
// Voting again for the current winner changes nothing.
func (v *VoteState) CastVote(backendID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.wins[backendID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, backendID)
	}
	if v.winner == backendID {
		return nil
	}
	if v.winner != "" {
		v.wins[v.winner]--
	}
	v.winner = backendID
	v.wins[backendID]++
	return nil
}

// RetractVote undoes the recorded vote, if there is one.
func (v *VoteState) RetractVote() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.winner == "" {
		return
	}
	v.wins[v.winner]--
	v.winner = ""
}

// ClearWinner forgets the current winner without touching any counters. It
// is called when the input clip changes.
func (v *VoteState) ClearWinner() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.winner = ""
}

func (v *VoteState) Winner() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.winner, v.winner != ""
}

func (v *VoteState) Wins(backendID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.wins[backendID]
}

func (v *VoteState) Standings() []Standing {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Standing, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, Standing{Backend: id, Wins: v.wins[id]})
	}
	return out
}

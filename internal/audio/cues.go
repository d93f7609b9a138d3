package audio

import "snake-duel/internal/game"

// DetectCues compares two snapshots of the same session and returns the cues
// for what happened in between. Snapshots from different sessions yield none.
func DetectCues(prev, cur *game.GameSnapshot) []Cue {
	if prev == nil || cur == nil || cur.Sequence == prev.Sequence {
		return nil
	}
	if cur.TickNumber < prev.TickNumber || cur.Mode != prev.Mode {
		return nil
	}

	var seen [cueCount]bool
	var gold [2]bool
	for _, h := range cur.Highlights {
		if h.Player < 1 || h.Player > 2 {
			continue
		}
		if h.Gold {
			gold[h.Player-1] = true
		} else {
			seen[CueHazard] = true
		}
	}

	for i := range cur.Scores {
		if gold[i] {
			seen[CueBonus] = true
		} else if cur.Scores[i] > prev.Scores[i] {
			seen[CueFood] = true
		}
	}

	if cur.GameOver != nil && prev.GameOver == nil {
		seen[CueGameOver] = true
	}

	var cues []Cue
	for c := Cue(0); c < cueCount; c++ {
		if seen[c] {
			cues = append(cues, c)
		}
	}
	return cues
}

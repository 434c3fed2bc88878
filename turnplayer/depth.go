package turnplayer

import "time"

// AdaptiveDepth picks the search depth from the time left and the number of
// pieces still to be handed out: more time or fewer pieces search deeper.
// The depth never exceeds pliesLeft.
func (p *Player) AdaptiveDepth(remaining time.Duration, piecesLeft, pliesLeft int) int {
	var depth int
	switch {
	case remaining > p.cfg.DeepTime:
		switch {
		case piecesLeft > 12:
			depth = 3
		case piecesLeft > 8:
			depth = 4
		default:
			depth = 5
		}
	case remaining > p.cfg.ModerateTime:
		depth = 3
	default:
		depth = 2
	}
	return min(depth, pliesLeft)
}

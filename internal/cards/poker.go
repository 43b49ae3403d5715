package cards

import (
	"fmt"

	poker "github.com/paulhankin/poker"
)

func toPoker(c Card) (poker.Card, error) {
	var s poker.Suit
	switch c.Suit {
	case Clubs:
		s = poker.Club
	case Diamonds:
		s = poker.Diamond
	case Hearts:
		s = poker.Heart
	case Spades:
		s = poker.Spade
	default:
		return 0, fmt.Errorf("invalid suit %v", c.Suit)
	}
	// Both sides number Ace as 1.
	return poker.MakeCard(s, poker.Rank(c.Rank))
}

// HandRank scores a 3, 5 or 7 card poker hand. Hands of equal strength
// score the same regardless of suit order.
func HandRank(cs []Card) (int, error) {
	pcs := make([]poker.Card, len(cs))
	for i, c := range cs {
		pc, err := toPoker(c)
		if err != nil {
			return 0, err
		}
		pcs[i] = pc
	}
	switch len(pcs) {
	case 3:
		var a3 [3]poker.Card
		copy(a3[:], pcs)
		return int(poker.Eval3(&a3)), nil
	case 5:
		var a5 [5]poker.Card
		copy(a5[:], pcs)
		return int(poker.Eval5(&a5)), nil
	case 7:
		var a7 [7]poker.Card
		copy(a7[:], pcs)
		return int(poker.Eval7(&a7)), nil
	default:
		return 0, fmt.Errorf("hand rank needs 3, 5 or 7 cards, got %d", len(pcs))
	}
}

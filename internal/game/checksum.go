package game

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/cardlang/cardlang-go/internal/cards"
	"github.com/cardlang/cardlang-go/internal/game/model"
)

// Checksum returns a deterministic BLAKE2b-256 fingerprint of st. Stacks are
// multisets, so their order does not count; the deck order does.
func Checksum(st *model.State) string {
	sum := blake2b.Sum256(canonical(st))
	return hex.EncodeToString(sum[:])
}

// canonical renders st independently of map iteration order.
func canonical(st *model.State) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%d|%t|%v\n", st.Current, st.Ended, st.Winners)
	fmt.Fprintf(&buf, "DECK:%s\n", strings.Join(cards.Strings(st.Deck.Cards()), ","))

	names := make([]string, 0, len(st.Stacks))
	for name := range st.Stacks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&buf, "STACK:%s|%s\n", name, sortedCards(st.Stacks[name]))
	}

	for _, p := range st.Players {
		fmt.Fprintf(&buf, "PLAYER:%d\n", p.ID)
		pnames := make([]string, 0, len(p.Stacks))
		for name := range p.Stacks {
			pnames = append(pnames, name)
		}
		sort.Strings(pnames)
		for _, name := range pnames {
			fmt.Fprintf(&buf, "  STACK:%s|%s\n", name, sortedCards(p.Stacks[name]))
		}
	}
	return buf.Bytes()
}

func sortedCards(s *cards.Stack) string {
	names := cards.Strings(s.Cards())
	sort.Strings(names)
	return strings.Join(names, ",")
}

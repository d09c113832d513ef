package domain

import (
	"sort"
	"strings"
)

// PairRoomSeparator joins the two usernames of a conversation room name
const PairRoomSeparator = "-"

// PairRoomName derives the conversation room for two usernames. Sorting
// first makes the name commutative: both directions of a pair compute the
// same room.
func PairRoomName(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, PairRoomSeparator)
}

// IsPairRoom reports whether a room name encodes a pairing rather than a
// personal room.
func IsPairRoom(room string) bool {
	return strings.Contains(room, PairRoomSeparator)
}

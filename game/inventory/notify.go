package inventory

import (
	"encoding/json"

	"github.com/rayen-brigui/altv-athena/game/player"
)

// PlaySound sends an audio cue to the player. variance selects among
// the cue's recorded variations client-side.
func PlaySound(s *player.Session, cue string, variance int) {
	payload, _ := json.Marshal(map[string]interface{}{
		"cue":      cue,
		"variance": variance,
	})
	s.Send(&player.Packet{Type: "sound", Payload: payload})
}

// PlayAnimation asks the client to play a clip from an animation set.
func PlayAnimation(s *player.Session, set, clip string, flag, durationMs int) {
	payload, _ := json.Marshal(map[string]interface{}{
		"set":      set,
		"clip":     clip,
		"flag":     flag,
		"duration": durationMs,
	})
	s.Send(&player.Packet{Type: "animation", Payload: payload})
}

// Notify shows a message in the player's notification feed.
func Notify(s *player.Session, message string) {
	payload, _ := json.Marshal(map[string]string{"message": message})
	s.Send(&player.Packet{Type: "notify", Payload: payload})
}

package agents

import (
	"fmt"
	"strings"
)

// Emotion is a pet's disposition and the kind of reaction it shows after a
// conversation.
type Emotion uint8

const (
	Happiness Emotion = iota
	Excitement
	Sadness
	Fear
	Disgust
	Hate
)

var emotionNames = [...]string{"Happiness", "Excitement", "Sadness", "Fear", "Disgust", "Hate"}

// Emotions lists every emotion in index order.
func Emotions() []Emotion {
	return []Emotion{Happiness, Excitement, Sadness, Fear, Disgust, Hate}
}

// Index is the icon index for the emotion. Anything past Disgust shares the
// last slot.
func (e Emotion) Index() int {
	if e > Disgust {
		return 5
	}
	return int(e)
}

func (e Emotion) String() string {
	if int(e) < len(emotionNames) {
		return emotionNames[e]
	}
	return emotionNames[Hate]
}

// ParseEmotion maps a name to an emotion, ignoring case. Unknown names map
// to Hate, the catch-all slot, and report false.
func ParseEmotion(s string) (Emotion, bool) {
	for i, name := range emotionNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Emotion(i), true
		}
	}
	return Hate, false
}

// MarshalText implements encoding.TextMarshaler.
func (e Emotion) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unlike ParseEmotion it
// rejects unknown names.
func (e *Emotion) UnmarshalText(b []byte) error {
	v, ok := ParseEmotion(string(b))
	if !ok {
		return fmt.Errorf("unknown emotion %q", string(b))
	}
	*e = v
	return nil
}

package extract

// Vocabulary is the fixed tag vocabulary. Tags outside this list are never
// attached to an entry; unknown tokens found in content are dropped.
var Vocabulary = []string{
	"game", "puzzle", "canvas",
	"3d", "webgl", "three", "shader", "particle", "fractal", "generative",
	"audio", "music", "synth", "drum", "sequencer",
	"editor", "writer", "notes", "tracker",
	"ai", "agent", "llm", "prompt",
	"educational", "tutorial", "trainer",
	"visual", "art", "paint", "draw",
	"simulation", "physics",
}

// InteractionType describes how a user engages with an app.
type InteractionType string

// Interaction types in priority order: game > audio > educational > visual > tool.
const (
	InteractionGame        InteractionType = "game"
	InteractionAudio       InteractionType = "audio"
	InteractionEducational InteractionType = "educational"
	InteractionVisual      InteractionType = "visual"
	InteractionTool        InteractionType = "tool"
	InteractionUnknown     InteractionType = "unknown"
)

// interactionTags maps each interaction type to the vocabulary tags implying it.
var interactionTags = map[InteractionType][]string{
	InteractionGame:        {"game", "puzzle"},
	InteractionAudio:       {"audio", "music", "synth", "drum", "sequencer"},
	InteractionEducational: {"educational", "tutorial", "trainer"},
	InteractionVisual: {
		"visual", "art", "canvas", "3d", "webgl", "three", "shader",
		"particle", "fractal", "generative", "paint", "draw",
		"simulation", "physics",
	},
	InteractionTool: {"editor", "writer", "notes", "tracker", "ai", "agent", "llm", "prompt"},
}

// interactionPriority resolves competing tag signals.
var interactionPriority = []InteractionType{
	InteractionGame,
	InteractionAudio,
	InteractionEducational,
	InteractionVisual,
	InteractionTool,
}

// DeriveInteractionType picks the interaction type implied by a tag set.
func DeriveInteractionType(tags []string) InteractionType {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	for _, it := range interactionPriority {
		for _, tag := range interactionTags[it] {
			if set[tag] {
				return it
			}
		}
	}
	return InteractionUnknown
}

package types

// MaxFeelings is the maximum number of feelings a single mnemon may carry.
const MaxFeelings = 5

// Feeling is one entry of the fixed feelings taxonomy.
type Feeling struct {
	// Name is the canonical feeling name stored on mnemons.
	Name string `json:"name"`

	// Emoji is the UI representation.
	Emoji string `json:"emoji"`
}

// Feelings is the fixed, closed taxonomy of feelings a mnemon can be tagged
// with. Mnemon.Feelings values must be drawn from this list.
var Feelings = []Feeling{
	{Name: "Nostalgic", Emoji: "🌅"},
	{Name: "Cozy", Emoji: "☕"},
	{Name: "Melancholic", Emoji: "🌧️"},
	{Name: "Epic", Emoji: "⚔️"},
	{Name: "Wholesome", Emoji: "💚"},
	{Name: "Bittersweet", Emoji: "🍃"},
	{Name: "Heartwarming", Emoji: "💝"},
	{Name: "Chill", Emoji: "😎"},
	{Name: "Adventurous", Emoji: "🗺️"},
	{Name: "Uplifting", Emoji: "🎈"},
	{Name: "Mysterious", Emoji: "🔮"},
	{Name: "Somber", Emoji: "🌑"},
}

// ValidFeeling reports whether name belongs to the feelings taxonomy.
func ValidFeeling(name string) bool {
	for _, f := range Feelings {
		if f.Name == name {
			return true
		}
	}
	return false
}

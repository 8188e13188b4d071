package style

// Preset is one entry in the static portrait style catalog.
type Preset struct {
	ID          string
	Name        string
	Description string
	Prompt      string
}

const basePrompt = "Transform the person in this photo into a stylized portrait. " +
	"Keep the facial features, expression and identity clearly recognizable. " +
	"Return the result as a single image."

var order = []string{
	"renaissance",
	"anime",
	"cyberpunk",
	"watercolor",
	"pop_art",
	"film_noir",
	"pixel_art",
	"impressionist",
}

var presets = map[string]Preset{
	"renaissance": {
		ID:          "renaissance",
		Name:        "Renaissance",
		Description: "Classical oil painting in the style of the old masters",
		Prompt: basePrompt + " Render it as a Renaissance oil painting: rich chiaroscuro lighting, " +
			"warm earthy palette, fine glazing texture, a dark atmospheric background, " +
			"period-appropriate attire painted with visible brushwork.",
	},
	"anime": {
		ID:          "anime",
		Name:        "Anime",
		Description: "Clean cel-shaded anime illustration",
		Prompt: basePrompt + " Render it as a high quality anime illustration: clean line art, " +
			"cel shading, large expressive eyes, soft gradient background, vibrant but balanced colors.",
	},
	"cyberpunk": {
		ID:          "cyberpunk",
		Name:        "Cyberpunk",
		Description: "Neon-lit futuristic portrait",
		Prompt: basePrompt + " Render it in a cyberpunk aesthetic: neon rim lighting in magenta and cyan, " +
			"rain-slicked night city bokeh behind the subject, subtle chrome and holographic accents, " +
			"cinematic contrast.",
	},
	"watercolor": {
		ID:          "watercolor",
		Name:        "Watercolor",
		Description: "Soft hand-painted watercolor",
		Prompt: basePrompt + " Render it as a watercolor painting: translucent washes, wet-on-wet blooms, " +
			"visible paper grain, loose edges fading into white, a restrained pastel palette.",
	},
	"pop_art": {
		ID:          "pop_art",
		Name:        "Pop Art",
		Description: "Bold comic-inspired pop art",
		Prompt: basePrompt + " Render it as 1960s pop art: flat saturated color blocks, halftone dot shading, " +
			"thick black outlines, a bold contrasting background panel.",
	},
	"film_noir": {
		ID:          "film_noir",
		Name:        "Film Noir",
		Description: "Dramatic black-and-white noir",
		Prompt: basePrompt + " Render it as a film noir still: monochrome, hard key light with deep shadows, " +
			"venetian-blind light patterns, smoky atmosphere, 1940s styling.",
	},
	"pixel_art": {
		ID:          "pixel_art",
		Name:        "Pixel Art",
		Description: "Retro 16-bit pixel portrait",
		Prompt: basePrompt + " Render it as detailed 16-bit pixel art: limited retro palette, crisp pixel " +
			"clusters, subtle dithering, a simple scenic backdrop.",
	},
	"impressionist": {
		ID:          "impressionist",
		Name:        "Impressionist",
		Description: "Light-filled impressionist painting",
		Prompt: basePrompt + " Render it as an impressionist painting: short visible brushstrokes, " +
			"dappled natural light, complementary color vibration, an airy outdoor setting.",
	},
}

// Catalog returns the ordered preset list. The first entry is the default
// selection.
func Catalog() []Preset {
	out := make([]Preset, 0, len(order))
	for _, id := range order {
		if p, ok := presets[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Default returns the preset selected on session start and after reset.
func Default() Preset {
	return presets[order[0]]
}

// ByID looks a preset up by its identifier.
func ByID(id string) (Preset, bool) {
	p, ok := presets[id]
	return p, ok
}

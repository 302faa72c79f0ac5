package prompt

import "strings"

type signTraits struct {
	Name    string
	Element string
	Traits  []string
	Colors  []string
	Symbols []string
	Animals []string
	Places  []string
	Styles  []string
}

var signs = map[string]signTraits{
	"aries": {
		Name:    "Aries",
		Element: "fire",
		Traits:  []string{"bold", "energetic", "courageous", "passionate", "adventurous"},
		Colors:  []string{"scarlet red", "burnt orange", "gold"},
		Symbols: []string{"ram horns", "flames", "a rising sun"},
		Animals: []string{"ram", "red fox"},
		Places:  []string{"Marseille", "Barcelona"},
		Styles:  []string{"expressionism", "street art"},
	},
	"taurus": {
		Name:    "Taurus",
		Element: "earth",
		Traits:  []string{"grounded", "sensual", "loyal", "patient", "elegant"},
		Colors:  []string{"emerald green", "rose pink", "warm cream"},
		Symbols: []string{"a bull", "roses", "copper coins"},
		Animals: []string{"highland cow", "bunny"},
		Places:  []string{"Florence", "Kyoto"},
		Styles:  []string{"baroque still life", "impressionism"},
	},
	"gemini": {
		Name:    "Gemini",
		Element: "air",
		Traits:  []string{"witty", "curious", "playful", "charming", "versatile"},
		Colors:  []string{"lemon yellow", "sky blue", "silver"},
		Symbols: []string{"twin figures", "feathers", "open books"},
		Animals: []string{"parrot", "squirrel"},
		Places:  []string{"New York", "Tokyo"},
		Styles:  []string{"pop art", "collage"},
	},
	"cancer": {
		Name:    "Cancer",
		Element: "water",
		Traits:  []string{"nurturing", "intuitive", "gentle", "protective", "sentimental"},
		Colors:  []string{"pearl white", "silver", "sea green"},
		Symbols: []string{"a crab", "a full moon", "seashells"},
		Animals: []string{"golden retriever", "sea turtle"},
		Places:  []string{"Lisbon", "Amsterdam"},
		Styles:  []string{"watercolor", "romanticism"},
	},
	"leo": {
		Name:    "Leo",
		Element: "fire",
		Traits:  []string{"radiant", "confident", "generous", "dramatic", "warm-hearted"},
		Colors:  []string{"gold", "sunset orange", "royal purple"},
		Symbols: []string{"a lion", "a sun crown", "sunflowers"},
		Animals: []string{"lion cub", "maine coon cat"},
		Places:  []string{"Rome", "Los Angeles"},
		Styles:  []string{"art deco", "renaissance portraiture"},
	},
	"virgo": {
		Name:    "Virgo",
		Element: "earth",
		Traits:  []string{"thoughtful", "precise", "graceful", "modest", "kind"},
		Colors:  []string{"sage green", "beige", "navy"},
		Symbols: []string{"wheat sheaves", "a maiden", "wildflowers"},
		Animals: []string{"border collie", "hedgehog"},
		Places:  []string{"Zurich", "Copenhagen"},
		Styles:  []string{"minimalism", "botanical illustration"},
	},
	"libra": {
		Name:    "Libra",
		Element: "air",
		Traits:  []string{"harmonious", "romantic", "diplomatic", "refined", "charming"},
		Colors:  []string{"pastel pink", "powder blue", "ivory"},
		Symbols: []string{"balanced scales", "peonies", "mirrors"},
		Animals: []string{"swan", "ragdoll cat"},
		Places:  []string{"Paris", "Vienna"},
		Styles:  []string{"rococo", "art nouveau"},
	},
	"scorpio": {
		Name:    "Scorpio",
		Element: "water",
		Traits:  []string{"intense", "magnetic", "mysterious", "passionate", "fearless"},
		Colors:  []string{"deep crimson", "black", "burgundy"},
		Symbols: []string{"a scorpion", "a phoenix", "serpents"},
		Animals: []string{"black panther", "black cat"},
		Places:  []string{"Prague", "Istanbul"},
		Styles:  []string{"dark surrealism", "chiaroscuro"},
	},
	"sagittarius": {
		Name:    "Sagittarius",
		Element: "fire",
		Traits:  []string{"adventurous", "optimistic", "free-spirited", "philosophical", "funny"},
		Colors:  []string{"purple", "turquoise", "amber"},
		Symbols: []string{"an archer's arrow", "a compass", "distant mountains"},
		Animals: []string{"horse", "husky"},
		Places:  []string{"Rio de Janeiro", "Cape Town"},
		Styles:  []string{"travel poster", "fauvism"},
	},
	"capricorn": {
		Name:    "Capricorn",
		Element: "earth",
		Traits:  []string{"ambitious", "disciplined", "dependable", "composed", "wise"},
		Colors:  []string{"charcoal grey", "dark brown", "forest green"},
		Symbols: []string{"a sea-goat", "mountain peaks", "an hourglass"},
		Animals: []string{"mountain goat", "german shepherd"},
		Places:  []string{"London", "Edinburgh"},
		Styles:  []string{"classical realism", "brutalist architecture"},
	},
	"aquarius": {
		Name:    "Aquarius",
		Element: "air",
		Traits:  []string{"inventive", "independent", "visionary", "eccentric", "humanitarian"},
		Colors:  []string{"electric blue", "aqua", "silver"},
		Symbols: []string{"a water bearer", "lightning", "constellations"},
		Animals: []string{"owl", "sphynx cat"},
		Places:  []string{"Berlin", "Seoul"},
		Styles:  []string{"futurism", "cyberpunk"},
	},
	"pisces": {
		Name:    "Pisces",
		Element: "water",
		Traits:  []string{"dreamy", "compassionate", "artistic", "intuitive", "gentle"},
		Colors:  []string{"seafoam green", "lavender", "opal"},
		Symbols: []string{"two fish", "ocean waves", "water lilies"},
		Animals: []string{"dolphin", "axolotl"},
		Places:  []string{"Venice", "Bali"},
		Styles:  []string{"ethereal fantasy", "impressionism"},
	},
}

var fallbackTraits = signTraits{
	Element: "cosmic",
	Traits:  []string{"mysterious", "balanced", "curious", "soulful"},
	Colors:  []string{"midnight blue", "silver", "violet"},
	Symbols: []string{"stars", "a crescent moon", "constellations"},
	Animals: []string{"cat", "owl"},
	Places:  []string{"a city under the stars"},
	Styles:  []string{"surrealism"},
}

// lookup returns the trait set for a sign name and the label used in prompts.
// Unknown names keep their original spelling and get the fallback set.
func lookup(sign string) (signTraits, string) {
	trimmed := strings.TrimSpace(sign)
	if t, ok := signs[strings.ToLower(trimmed)]; ok {
		return t, t.Name
	}
	if trimmed == "" {
		trimmed = "unknown"
	}
	return fallbackTraits, trimmed
}

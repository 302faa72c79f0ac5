// Package prompt turns a user's astrological profile into a text-to-image prompt.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/digkill/AstroImages/internal/models"
)

// Profile is the subset of a user profile that parameterises prompts.
type Profile struct {
	Gender       models.Gender
	InterestedIn models.InterestedIn
	BirthDate    time.Time
	BirthPlace   string
	SunSign      string
	MoonSign     string
	RisingSign   string
}

func ProfileFromUser(u *models.User) Profile {
	return Profile{
		Gender:       u.Gender,
		InterestedIn: u.InterestedIn,
		BirthDate:    u.BirthDate,
		BirthPlace:   u.BirthPlace,
		SunSign:      u.SunSign,
		MoonSign:     u.MoonSign,
		RisingSign:   u.RisingSign,
	}
}

type chart struct {
	sun, moon, rising             signTraits
	sunName, moonName, risingName string
}

func newChart(p Profile) chart {
	var c chart
	c.sun, c.sunName = lookup(p.SunSign)
	c.moon, c.moonName = lookup(p.MoonSign)
	c.rising, c.risingName = lookup(p.RisingSign)
	return c
}

func (c chart) placements() string {
	return fmt.Sprintf("%s %s sun, %s moon and %s rising", article(c.sunName), c.sunName, c.moonName, c.risingName)
}

func article(word string) string {
	if word != "" && strings.ContainsRune("AEIOUaeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}

func (c chart) traits(limit int) []string {
	return take(merge(c.sun.Traits, c.rising.Traits, c.moon.Traits), limit)
}

func (c chart) colors(limit int) []string {
	return take(merge(c.sun.Colors, c.moon.Colors, c.rising.Colors), limit)
}

func (c chart) symbols(limit int) []string {
	return take(merge(c.sun.Symbols, c.moon.Symbols, c.rising.Symbols), limit)
}

func (c chart) elements() []string {
	return merge([]string{c.sun.Element}, []string{c.moon.Element}, []string{c.rising.Element})
}

// Build returns the prompt for a category. It never fails: unknown signs use a
// generic trait set and unknown categories use the art template.
func Build(category models.ImageType, p Profile) string {
	c := newChart(p)

	var text string
	switch category {
	case models.ImageTypePartner:
		text = partnerPrompt(c, p)
	case models.ImageTypeCelebrity:
		text = celebrityPrompt(c)
	case models.ImageTypePet:
		text = petPrompt(c)
	case models.ImageTypeTattoo:
		text = tattooPrompt(c)
	case models.ImageTypeCity:
		text = cityPrompt(c, p)
	default:
		text = artPrompt(c)
	}
	return strings.Join(strings.Fields(text), " ")
}

func partnerPrompt(c chart, p Profile) string {
	var about []string
	if p.Gender.Valid() {
		about = append(about, "a "+string(p.Gender)+" soul")
	} else {
		about = append(about, "someone")
	}
	if !p.BirthDate.IsZero() {
		about = append(about, fmt.Sprintf("born in %d", p.BirthDate.Year()))
	}
	if place := strings.TrimSpace(p.BirthPlace); place != "" {
		about = append(about, "in "+place)
	}

	return fmt.Sprintf(
		"A romantic portrait of the ideal partner, a %s, for %s with %s. "+
			"The partner appears %s, with an inner world that feels %s. "+
			"Color palette of %s. Warm cinematic lighting, photorealistic, 85mm portrait lens.",
		partnerNoun(p.InterestedIn),
		strings.Join(about, " "),
		c.placements(),
		joinList(take(merge(c.sun.Traits, c.rising.Traits), 5)),
		joinList(take(c.moon.Traits, 2)),
		joinList(c.colors(4)),
	)
}

func partnerNoun(i models.InterestedIn) string {
	switch i {
	case models.InterestedInBoys:
		return "man"
	case models.InterestedInGirls:
		return "woman"
	case models.InterestedInNonBinary:
		return "non-binary person"
	default:
		return "person"
	}
}

func celebrityPrompt(c chart) string {
	return fmt.Sprintf(
		"A glamorous red carpet portrait of a celebrity whose star power channels %s: %s. "+
			"Styled in %s and surrounded by %s. Editorial photography, dramatic studio lighting.",
		c.placements(),
		joinList(c.traits(5)),
		joinList(c.colors(3)),
		joinList(c.symbols(3)),
	)
}

func petPrompt(c chart) string {
	animals := merge(c.sun.Animals, c.moon.Animals, c.rising.Animals)
	animal := "cat"
	if len(animals) > 0 {
		animal = animals[0]
	}
	return fmt.Sprintf(
		"A charming portrait of a %s as the spirit pet of someone with %s. "+
			"The pet is %s, posed among %s, in shades of %s. "+
			"Soft daylight, highly detailed fur, storybook realism.",
		animal,
		c.placements(),
		joinList(c.traits(4)),
		joinList(c.symbols(2)),
		joinList(c.colors(3)),
	)
}

func tattooPrompt(c chart) string {
	return fmt.Sprintf(
		"A tattoo design for %s: a fine line composition combining %s, accented with %s motifs and expressing a %s spirit. "+
			"Black ink on a white background, clean linework, balanced negative space.",
		c.placements(),
		joinList(c.symbols(4)),
		joinList(c.elements()),
		joinList(c.traits(3)),
	)
}

func cityPrompt(c chart, p Profile) string {
	places := merge(c.sun.Places, c.rising.Places, c.moon.Places)
	city := fallbackTraits.Places[0]
	if len(places) > 0 {
		city = places[0]
	}
	heritage := ""
	if place := strings.TrimSpace(p.BirthPlace); place != "" {
		heritage = fmt.Sprintf("Echoes of %s, the place of birth, appear in the architecture.", place)
	}
	return fmt.Sprintf(
		"A dreamlike cityscape of %s reimagined for %s, with streets that feel %s. %s "+
			"Color palette of %s, golden hour, wide angle, atmospheric.",
		city,
		c.placements(),
		joinList(c.traits(4)),
		heritage,
		joinList(c.colors(4)),
	)
}

func artPrompt(c chart) string {
	styles := merge(c.sun.Styles, c.moon.Styles, c.rising.Styles)
	return fmt.Sprintf(
		"An abstract %s artwork inspired by %s. Elements of %s, symbols of %s and a mood that is %s. "+
			"Palette of %s. Gallery quality, rich texture.",
		styles[0],
		c.placements(),
		joinList(c.elements()),
		joinList(c.symbols(3)),
		joinList(c.traits(4)),
		joinList(c.colors(4)),
	)
}

// merge concatenates lists, dropping case-insensitive duplicates while keeping
// the first occurrence order.
func merge(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, item := range list {
			key := strings.ToLower(strings.TrimSpace(item))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

func take(items []string, limit int) []string {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

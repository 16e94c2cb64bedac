package llm

import (
	"context"
	"fmt"

	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/logger"
)

const (
	heroImageURL  = "https://images.unsplash.com/photo-1560472354-b33ff0c44a43?w=800&h=600&fit=crop&q=80"
	aboutImageURL = "https://images.unsplash.com/photo-1556761175-4b46a572b786?w=600&h=400&fit=crop&q=80"
)

var featureIcons = map[string][3]string{
	"restaurant":   {"🍽️", "👨‍🍳", "⭐"},
	"technology":   {"💻", "🚀", "⚡"},
	"healthcare":   {"🏥", "👩‍⚕️", "❤️"},
	"retail_store": {"🛍️", "💎", "🎁"},
	"consulting":   {"📊", "💡", "🎯"},
	"real_estate":  {"🏠", "🏗️", "📍"},
	"law_firm":     {"⚖️", "📜", "🛡️"},
	"fitness":      {"💪", "🏃‍♂️", "🎯"},
	"education":    {"📚", "🎓", "✨"},
	"automotive":   {"🚗", "🔧", "⚡"},
	"construction": {"🏗️", "🔨", "📐"},
	"beauty":       {"💄", "✨", "💅"},
	"travel":       {"✈️", "🌍", "🎒"},
	"financial":    {"💰", "📈", "🛡️"},
	"marketing":    {"📢", "🎨", "📊"},
}

var defaultIcons = [3]string{"⭐", "💼", "🚀"}

// FeatureIcon returns the icon for feature n (1-3) of a business type.
func FeatureIcon(n int, businessType string) string {
	icons, ok := featureIcons[businessType]
	if !ok {
		icons = defaultIcons
	}
	if n < 1 || n > len(icons) {
		return "⭐"
	}
	return icons[n-1]
}

// Branding holds the colours used when a profile leaves them empty.
type Branding struct {
	PrimaryColor   string
	SecondaryColor string
}

var DefaultBranding = Branding{PrimaryColor: "#667eea", SecondaryColor: "#764ba2"}

// GenerateContent runs one completion per slot of page type p, in order, and
// returns the generated slots followed by the profile-derived extras. The
// first failing slot aborts generation and no partial content is returned.
func GenerateContent(ctx context.Context, gen Generator, p PageType, profile content.Profile, b Branding, log logger.Logger) (*content.Generated, int, error) {
	data := PromptData{
		BusinessName: profile.BusinessName,
		BusinessType: profile.BusinessType,
		Description:  profile.Description,
		Tagline:      profile.Tagline,
		Address:      profile.Address,
	}

	generated := content.NewGenerated()
	tokens := 0
	for _, sp := range Prompts(p) {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		log.WithField("slot", sp.Slot).Debug("generating slot")
		c, err := gen.Generate(ctx, BuildPrompt(sp.Template, data))
		if err != nil {
			return nil, 0, fmt.Errorf("slot %s: %w", sp.Slot, err)
		}
		tokens += c.TokensUsed

		if sp.Feature {
			generated.Set(sp.Slot, content.FeatureSlot(content.ParseFeature(c.Text)))
		} else {
			generated.SetText(sp.Slot, c.Text)
		}
	}

	AddExtras(generated, p, profile, b)
	return generated, tokens, nil
}

// AddExtras appends the profile-derived values every page type carries, and
// for landing pages the contact details, placeholder images and feature icons.
func AddExtras(g *content.Generated, p PageType, profile content.Profile, b Branding) {
	g.SetText("business_name", profile.BusinessName)
	g.SetText("logo_url", profile.LogoURL)
	g.SetText("primary_color", orDefault(profile.PrimaryColor, b.PrimaryColor))
	g.SetText("secondary_color", orDefault(profile.SecondaryColor, b.SecondaryColor))

	if p != PageLanding {
		return
	}
	g.SetText("phone", profile.Phone)
	g.SetText("email", profile.Email)
	g.SetText("hero_image_url", heroImageURL)
	g.SetText("about_image_url", aboutImageURL)
	for n := 1; n <= 3; n++ {
		g.SetText(fmt.Sprintf("feature_%d_icon", n), FeatureIcon(n, profile.BusinessType))
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

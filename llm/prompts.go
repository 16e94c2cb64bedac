package llm

import (
	"strings"
)

// PageType selects the slot set generated for a template.
type PageType int

const (
	PageGeneric PageType = iota
	PageLanding
	PageAbout
	PagePricing
)

// ParsePageType maps a template type to its page type. Unknown types are generic.
func ParsePageType(s string) PageType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "landing":
		return PageLanding
	case "about":
		return PageAbout
	case "pricing":
		return PagePricing
	default:
		return PageGeneric
	}
}

func (p PageType) String() string {
	switch p {
	case PageLanding:
		return "landing"
	case PageAbout:
		return "about"
	case PagePricing:
		return "pricing"
	default:
		return "generic"
	}
}

const styleInstruction = "\n\nIMPORTANT: Write in professional, engaging tone. Use proper HTML formatting if needed. Be specific to the business type and avoid generic phrases."

// SlotPrompt is the prompt template for one generated slot.
type SlotPrompt struct {
	Slot     string
	Template string
	Feature  bool
}

var pagePrompts = map[PageType][]SlotPrompt{
	PageLanding: {
		{Slot: "hero_headline", Template: "Create a powerful, attention-grabbing headline for {business_name}, a {business_type} business. Make it compelling, benefit-focused, and under 10 words."},
		{Slot: "hero_subheading", Template: "Write a compelling 2-sentence subheading that explains what {business_name} does and the main benefit for customers. Business: {description}"},
		{Slot: "hero_cta_text", Template: "Create a strong call-to-action button text for {business_name} ({business_type}). Make it action-oriented and under 4 words."},
		{Slot: "features_heading", Template: "Create a heading for the features section of {business_name} website. Make it benefit-focused and engaging."},
		{Slot: "feature_1", Feature: true, Template: "Create the FIRST key feature/benefit of {business_name} ({business_type}). Include a short title (3-4 words) and 2-sentence description. Focus on the main unique value. Business: {description}"},
		{Slot: "feature_2", Feature: true, Template: "Create the SECOND key feature/benefit of {business_name} ({business_type}). Include a short title (3-4 words) and 2-sentence description. Focus on quality or service excellence. Business: {description}"},
		{Slot: "feature_3", Feature: true, Template: "Create the THIRD key feature/benefit of {business_name} ({business_type}). Include a short title (3-4 words) and 2-sentence description. Focus on customer satisfaction or results. Business: {description}"},
		{Slot: "about_heading", Template: "Create a heading for the about section of {business_name}. Make it personal and trustworthy."},
		{Slot: "about_description", Template: "Write a 3-sentence about section for {business_name} ({business_type}). Include their story, what makes them special, and their commitment to customers. Business: {description}"},
		{Slot: "contact_heading", Template: "Create a heading for the contact section of {business_name}. Make it inviting and action-oriented."},
		{Slot: "contact_info", Template: "Write 2 sentences encouraging people to contact {business_name}. Include what they can expect when they get in touch."},
	},
	PageAbout: {
		{Slot: "page_title", Template: "Create a page title for the About Us page of {business_name}. Make it engaging and professional."},
		{Slot: "company_story", Template: "Write a compelling 4-sentence company story for {business_name} ({business_type}). Include how they started, their mission, and what drives them. Business: {description}"},
		{Slot: "mission_statement", Template: "Write a clear and inspiring mission statement for {business_name} ({business_type}). Keep it 1-2 sentences. Business: {description}"},
		{Slot: "vision_statement", Template: "Write a forward-looking vision statement for {business_name} ({business_type}). Keep it 1-2 sentences about their future goals. Business: {description}"},
		{Slot: "core_values", Template: "List 3 core values for {business_name} ({business_type}). For each value, provide a title (1-2 words) and a 1-sentence description. Business: {description}"},
		{Slot: "team_intro", Template: "Write a 2-sentence introduction about the team at {business_name}. Focus on their expertise and commitment to customers."},
		{Slot: "call_to_action", Template: "Write a compelling call-to-action for the end of the About Us page of {business_name}. Encourage visitors to get in touch or learn more about their services."},
	},
	PagePricing: {
		{Slot: "page_title", Template: "Create a page title for the pricing page of {business_name}. Make it clear and compelling."},
		{Slot: "pricing_headline", Template: "Create a compelling headline for the pricing section of {business_name} ({business_type}). Focus on value and transparency."},
		{Slot: "pricing_subheading", Template: "Write a 2-sentence subheading explaining the pricing approach of {business_name}. Emphasize value and customer benefits."},
		{Slot: "basic_plan", Template: "Create a BASIC service package for {business_name} ({business_type}). Include: package name, 3 key features, and suggested pricing range. Business: {description}"},
		{Slot: "standard_plan", Template: "Create a STANDARD service package for {business_name} ({business_type}). Include: package name, 4 key features, and suggested pricing range. This should be the most popular option. Business: {description}"},
		{Slot: "premium_plan", Template: "Create a PREMIUM service package for {business_name} ({business_type}). Include: package name, 5 key features, and suggested pricing range. Focus on comprehensive service. Business: {description}"},
		{Slot: "pricing_faq", Template: "Create 3 frequently asked questions about pricing for {business_name} ({business_type}). Include questions and helpful answers about payment, refunds, or service details."},
		{Slot: "contact_cta", Template: "Write a compelling call-to-action encouraging people to contact {business_name} for a custom quote or consultation."},
	},
	PageGeneric: {
		{Slot: "content", Template: "Create comprehensive website content for {business_name}, a {business_type} business. Include: headline, description, key features, and call-to-action. Business: {description}"},
	},
}

// Prompts returns the slot prompts of a page type in generation order.
func Prompts(p PageType) []SlotPrompt {
	return pagePrompts[p]
}

// Slots lists the slot names generated for a page type.
func Slots(p PageType) []string {
	prompts := pagePrompts[p]
	slots := make([]string, len(prompts))
	for i, sp := range prompts {
		slots[i] = sp.Slot
	}
	return slots
}

// PromptData is the business data a prompt template is filled from.
type PromptData struct {
	BusinessName string
	BusinessType string
	Description  string
	Tagline      string
	Address      string
}

// BuildPrompt fills a slot template and appends the style instruction.
func BuildPrompt(template string, d PromptData) string {
	location := ""
	if parts := strings.Split(d.Address, ","); len(parts) > 1 {
		location = strings.TrimSpace(parts[len(parts)-1])
	}
	r := strings.NewReplacer(
		"{business_name}", d.BusinessName,
		"{business_type}", d.BusinessType,
		"{description}", d.Description,
		"{tagline}", d.Tagline,
		"{location}", location,
	)
	return r.Replace(template) + styleInstruction
}

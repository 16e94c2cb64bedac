package content

import "regexp"

var featureKey = regexp.MustCompile(`^feature_\d+$`)

// Context maps placeholder names, without braces, to their values.
type Context map[string]string

// Build merges the profile, its social links and the generated slots into one
// context. Generated values win on collision. A feature slot stored under a
// feature_N key is expanded to feature_N_title and feature_N_description.
func Build(p Profile, g *Generated) Context {
	ctx := Context(p.Fields())
	for platform, url := range p.SocialMedia {
		ctx["social_"+platform] = url
	}

	g.Each(func(key string, s Slot) {
		switch {
		case s.IsFeature() && featureKey.MatchString(key):
			ctx[key+"_title"] = s.Feature.Title
			ctx[key+"_description"] = s.Feature.Description
		case s.IsFeature():
			ctx[key] = s.Feature.Title
		default:
			ctx[key] = s.Text
		}
	})
	return ctx
}

// With returns a copy of c with the given pairs added.
func (c Context) With(pairs map[string]string) Context {
	out := make(Context, len(c)+len(pairs))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range pairs {
		out[k] = v
	}
	return out
}

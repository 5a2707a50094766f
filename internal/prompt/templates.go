package prompt

import "github.com/yungbote/founderflow-backend/internal/schema"

const (
	IdeaGenerator      = "idea_generator"
	IdeationBoard      = "ideation_board"
	IdeaValidator      = "idea_validator"
	Roadmap            = "roadmap"
	Branding           = "branding"
	ColorScheme        = "color_scheme"
	LegalSimplify      = "legal_simplify"
	CorporateStructure = "corporate_structure"
	LegalChat          = "legal_chat"
	ColdEmail          = "cold_email"
	SocialContent      = "social_content"
	SEOKeywords        = "seo_keywords"
)

const plainLanguage = "The reader has little legal or technical background: explain in simple terms and keep it short."

var ideaAnalysisSchema = schema.Schema{
	Name: "idea_analysis",
	Fields: []schema.Field{
		schema.Str("name"),
		schema.Str("description").Desc("two-line summary of the idea"),
		schema.Obj("analysis",
			schema.List("merits"),
			schema.List("demerits"),
			schema.List("suggestions"),
		),
	},
}

const ideaAnalysisExample = `{
  "name": "Chosen name",
  "description": "A brief two-line summary of the idea.",
  "analysis": {
    "merits": ["Point 1", "Point 2"],
    "demerits": ["Point 1", "Point 2"],
    "suggestions": ["Point 1", "Point 2"]
  }
}`

// RegisterBuiltins adds the templates behind each FounderFlow screen.
func RegisterBuiltins(r *Registry) {
	r.RegisterSpec(Spec{
		Name:     IdeaGenerator,
		Version:  1,
		Title:    "Idea Generator",
		Preamble: "You are an AI assistant specializing in startup ideation.",
		Task: "Come up with one startup idea from the details below. Give it a name, " +
			"describe it in two lines, and analyse its merits and demerits with suggestions for improvement.",
		Fields: []Field{
			{Key: "industry", Label: "Industry", Suggestions: []string{"Tech", "Healthcare", "Education", "Finance", "E-commerce", "Entertainment"}},
			{Key: "problem", Label: "Problem", Suggestions: []string{"Time Management", "Health Issues", "Productivity", "Financial Planning", "Sustainability"}},
			{Key: "target_audience", Label: "Target Audience", Suggestions: []string{"Students", "Working Professionals", "Small Businesses", "Freelancers", "Parents"}},
			{Key: "business_model", Label: "Business Model", Suggestions: []string{"Subscription", "One-time Purchase", "Freemium", "Ads-based", "Marketplace"}},
		},
		Schema:  ideaAnalysisSchema,
		Example: ideaAnalysisExample,
	})

	r.RegisterSpec(Spec{
		Name:     IdeationBoard,
		Version:  1,
		Title:    "Ideation Whiteboard",
		Preamble: "You are an AI assistant specializing in startup ideation.",
		Task: "The founder collected the whiteboard notes below. If several names are listed pick one. " +
			"Describe the idea in two lines and give a concise analysis of merits, demerits and suggestions for improvement.",
		Fields: []Field{
			{Key: "name", Label: "Name"},
			{Key: "feature", Label: "Feature"},
			{Key: "context", Label: "Context"},
			{Key: "target_audience", Label: "Target Audience"},
			{Key: "other", Label: "Other"},
		},
		Schema:  ideaAnalysisSchema,
		Example: ideaAnalysisExample,
	})

	r.RegisterSpec(Spec{
		Name:     IdeaValidator,
		Version:  1,
		Title:    "Idea Validator",
		Preamble: "You are an AI startup analyst producing validation reports.",
		Task: "Validate {{if .startup_name}}{{.startup_name}}{{else}}this unnamed startup{{end}}. Report market demand " +
			"(low, medium or high), key competitors and their gaps, the best monetization model, the major risks, " +
			"and a 0-100 score for feasibility, profitability and competition.",
		Fields: []Field{
			{Key: "startup_name", Label: "Startup Name"},
			{Key: "problem", Label: "Problem"},
			{Key: "solution", Label: "Solution"},
		},
		Schema: schema.Schema{
			Name: "idea_validation",
			Fields: []schema.Field{
				schema.Str("marketDemand"),
				schema.List("competitors"),
				schema.Str("monetizationModel"),
				schema.List("risks"),
				schema.Obj("scores",
					schema.Num("feasibility"),
					schema.Num("profitability"),
					schema.Num("competition"),
				),
			},
		},
		Example: `{
  "marketDemand": "high",
  "competitors": ["Competitor A", "Competitor B"],
  "monetizationModel": "Subscription",
  "risks": ["High competition", "Customer acquisition costs"],
  "scores": {
    "feasibility": 78,
    "profitability": 85,
    "competition": 60
  }
}`,
	})

	r.RegisterSpec(Spec{
		Name:     Roadmap,
		Version:  1,
		Title:    "Startup Roadmap",
		Preamble: "You are a startup advisor who plans pragmatic roadmaps.",
		Task: "Generate a roadmap for a {{or .industry \"new\"}} startup{{if .stage}} at the {{.stage}} stage{{end}}. " +
			"Each step needs a name, a short description and an estimated timeframe.",
		Fields: []Field{
			{Key: "industry", Label: "Industry"},
			{Key: "stage", Label: "Stage", Suggestions: []string{"Idea", "MVP", "Early Traction", "Growth", "Scale"}},
		},
		Schema: schema.Schema{
			Name: "roadmap",
			Fields: []schema.Field{
				schema.Objs("steps",
					schema.Str("name"),
					schema.Str("description"),
					schema.Str("timeframe"),
				),
			},
		},
		Example: `{
  "steps": [
    { "name": "Step 1", "description": "Brief details", "timeframe": "1 month" },
    { "name": "Step 2", "description": "Brief details", "timeframe": "2 months" }
  ]
}`,
	})

	r.RegisterSpec(Spec{
		Name:     Branding,
		Version:  1,
		Title:    "Brand Name & Tagline",
		Preamble: "You are a branding consultant.",
		Task:     "Propose a brand name and a tagline for the business below, plus a few alternative names.",
		Fields: []Field{
			{Key: "keywords", Label: "Keywords"},
			{Key: "description", Label: "Description"},
		},
		Schema: schema.Schema{
			Name: "branding",
			Fields: []schema.Field{
				schema.Str("name"),
				schema.Str("tagline"),
				schema.List("alternatives").Opt(),
			},
		},
		Example: `{
  "name": "Brand name",
  "tagline": "Short memorable tagline",
  "alternatives": ["Alternative 1", "Alternative 2"]
}`,
	})

	palette := func(name string) schema.Field {
		return schema.Obj(name,
			schema.Str("primary"),
			schema.Str("secondary"),
			schema.Str("accent"),
			schema.Str("background"),
			schema.Str("text"),
		)
	}
	r.RegisterSpec(Spec{
		Name:     ColorScheme,
		Version:  1,
		Title:    "Color Scheme",
		Preamble: "You are a visual identity designer.",
		Task: "Suggest a color scheme for light and dark mode, as hex codes, and a pair of suitable fonts " +
			"for the business below.",
		Fields: []Field{
			{Key: "style_preference", Label: "Style Preference", Suggestions: []string{"Minimal", "Playful", "Corporate", "Luxury", "Earthy"}},
			{Key: "description", Label: "Description"},
		},
		Schema: schema.Schema{
			Name: "color_scheme",
			Fields: []schema.Field{
				palette("light"),
				palette("dark"),
				schema.Obj("fonts", schema.Str("heading"), schema.Str("body")),
			},
		},
		Example: `{
  "light": { "primary": "#1E40AF", "secondary": "#64748B", "accent": "#F59E0B", "background": "#FFFFFF", "text": "#0F172A" },
  "dark": { "primary": "#60A5FA", "secondary": "#94A3B8", "accent": "#FBBF24", "background": "#0F172A", "text": "#F8FAFC" },
  "fonts": { "heading": "Poppins", "body": "Inter" }
}`,
	})

	r.RegisterSpec(Spec{
		Name:     LegalSimplify,
		Version:  1,
		Title:    "Legal Document Simplifier",
		Preamble: "You are a legal assistant AI.",
		Task:     "Simplify the legal document below so a non-lawyer can understand it. " + plainLanguage,
		Fields: []Field{
			{Key: "document", Label: "Document"},
		},
		Schema: schema.Schema{
			Name: "legal_simplification",
			Fields: []schema.Field{
				schema.Str("summary"),
				schema.List("key_points"),
				schema.List("caveats").Opt(),
			},
		},
		Example: `{
  "summary": "Plain-language summary of the document.",
  "key_points": ["What you agree to", "What the other party agrees to"],
  "caveats": ["Points worth checking with a lawyer"]
}`,
	})

	r.RegisterSpec(Spec{
		Name:     CorporateStructure,
		Version:  1,
		Title:    "Corporate Structure Advisor",
		Preamble: "You are an expert business consultant.",
		Task: "Recommend the best corporate structure for a {{or .business_type \"small\"}} business and explain how to proceed. " +
			plainLanguage,
		Fields: []Field{
			{Key: "business_type", Label: "Business Type"},
			{Key: "country", Label: "Country"},
		},
		Schema: schema.Schema{
			Name: "corporate_structure",
			Fields: []schema.Field{
				schema.Str("recommended_structure"),
				schema.List("reasons"),
				schema.List("next_steps"),
			},
		},
		Example: `{
  "recommended_structure": "LLC",
  "reasons": ["Limited liability", "Simple taxation"],
  "next_steps": ["Choose a registered agent", "File the articles of organization"]
}`,
	})

	r.RegisterSpec(Spec{
		Name:     LegalChat,
		Version:  1,
		Title:    "Legal Assistant",
		Preamble: "You are an AI assistant that helps founders with business-related legal questions.",
		Task:     "Answer clearly and concisely with actionable insights.",
		Fields: []Field{
			{Key: "question", Label: "Question"},
		},
		Schema: schema.Schema{
			Name: "legal_answer",
			Fields: []schema.Field{
				schema.Str("answer"),
				schema.List("actions").Opt(),
			},
		},
		Example: `{
  "answer": "Direct answer to the question.",
  "actions": ["First thing to do", "Second thing to do"]
}`,
	})

	r.RegisterSpec(Spec{
		Name:     ColdEmail,
		Version:  1,
		Title:    "Cold Email",
		Preamble: "You are a marketing copywriter who writes effective cold emails.",
		Task:     "Write a cold email{{if .tone}} in a {{.tone}} tone{{end}} based on the context below.",
		Fields: []Field{
			{Key: "receiver", Label: "Receiver"},
			{Key: "context", Label: "Context"},
			{Key: "tone", Label: "Tone", Suggestions: []string{"Friendly", "Professional", "Persuasive", "Casual"}},
		},
		Schema: schema.Schema{
			Name: "cold_email",
			Fields: []schema.Field{
				schema.Str("subject"),
				schema.Str("body"),
			},
		},
		Example: `{
  "subject": "Quick question about your workflow",
  "body": "Dear [Name],\n\nI hope this email finds you well. ...\n\nBest regards,\n[Your Name]"
}`,
	})

	r.RegisterSpec(Spec{
		Name:     SocialContent,
		Version:  1,
		Title:    "Social Media Posts",
		Preamble: "You are a social media manager for early-stage startups.",
		Task:     "Write one post per platform for the handles given, based on the context below. Include relevant hashtags.",
		Fields: []Field{
			{Key: "instagram", Label: "Instagram Handle"},
			{Key: "facebook", Label: "Facebook Handle"},
			{Key: "twitter", Label: "Twitter Handle"},
			{Key: "context", Label: "Context"},
		},
		Schema: schema.Schema{
			Name: "social_content",
			Fields: []schema.Field{
				schema.Objs("posts",
					schema.Str("platform"),
					schema.Str("text"),
					schema.List("hashtags").Opt(),
				),
			},
		},
		Example: `{
  "posts": [
    { "platform": "instagram", "text": "Post text", "hashtags": ["#business", "#marketing"] },
    { "platform": "twitter", "text": "Post text", "hashtags": ["#startup"] }
  ]
}`,
	})

	r.RegisterSpec(Spec{
		Name:     SEOKeywords,
		Version:  1,
		Title:    "SEO Keywords",
		Preamble: "You are an SEO specialist.",
		Task:     "Suggest search keywords the business below should target.",
		Fields: []Field{
			{Key: "domain", Label: "Domain"},
			{Key: "business_name", Label: "Business Name"},
			{Key: "niche", Label: "Niche"},
			{Key: "context", Label: "Context"},
		},
		Schema: schema.Schema{
			Name: "seo_keywords",
			Fields: []schema.Field{
				schema.List("keywords"),
			},
		},
		Example: `{
  "keywords": ["brand niche", "best niche services", "niche solutions", "niche near me"]
}`,
	})
}

package catalog

import "github.com/briefkit/wizard/model"

// Default returns the built-in seven-step design brief catalog. It is the
// deployment default when no catalog file is configured and always passes
// validation.
func Default() model.Catalog {
	return model.Catalog{
		Version: "1",
		Steps: []model.StepDefinition{
			{
				ID:          "project-basics",
				Title:       "Project Basics",
				Description: "What the project is and who it is for.",
				Icon:        model.IconClipboard,
				Fields:      []string{"project_type", "industry", "launch_timeline", "budget_range", "existing_brand"},
			},
			{
				ID:          "audience",
				Title:       "Audience",
				Description: "Who the work needs to reach.",
				Icon:        model.IconUsers,
				Fields:      []string{"age_groups", "audience_description", "audience_regions", "b2b_or_b2c"},
			},
			{
				ID:          "brand-personality",
				Title:       "Brand Personality",
				Description: "The voice and character of the brand.",
				Icon:        model.IconSparkles,
				Fields:      []string{"personality_traits", "tone_formal_playful", "tone_classic_modern", "brand_words"},
			},
			{
				ID:          "visual-style",
				Title:       "Visual Style",
				Description: "Overall look and feel direction.",
				Icon:        model.IconEye,
				Fields:      []string{"style_keywords", "liked_examples", "disliked_examples", "complexity_preference"},
			},
			{
				ID:          "color",
				Title:       "Color",
				Description: "Color directions and constraints.",
				Icon:        model.IconPalette,
				Fields:      []string{"preferred_colors", "avoided_colors", "palette_mood", "existing_palette"},
			},
			{
				ID:          "typography",
				Title:       "Typography",
				Description: "Type preferences.",
				Icon:        model.IconType,
				Fields:      []string{"type_styles", "serif_or_sans", "reference_typefaces"},
			},
			{
				ID:          "deliverables",
				Title:       "Deliverables",
				Description: "What must be produced.",
				Icon:        model.IconPackage,
				Fields:      []string{"deliverable_items", "file_formats", "usage_channels", "notes"},
			},
		},
	}
}

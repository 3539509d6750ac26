package textrisk

// KeywordCategory is one weighted phrase table. The tables are fixed policy
// constants loaded once at startup; matching is case-insensitive substring,
// each phrase counted at most once per category per text.
type KeywordCategory struct {
	Name    string
	Weight  float64
	Phrases []string
}

// keywordTable is the canonical phrase policy: immediate-crisis phrases at
// 3.0, high-risk mental-health phrases at 2.0, workplace toxicity at 1.5.
var keywordTable = []KeywordCategory{
	{
		Name:   "immediate_crisis",
		Weight: 3.0,
		Phrases: []string{
			"suicide",
			"kill myself",
			"end it all",
			"can't go on",
			"cant go on",
			"want to die",
			"no point living",
			"panic attacks daily",
			"threatened to fire",
			"threatened my visa",
			"humiliated publicly",
			"afraid for safety",
		},
	},
	{
		Name:   "high_risk_mental_health",
		Weight: 2.0,
		Phrases: []string{
			"panic attack",
			"suicidal thoughts",
			"breaking down",
			"can't cope",
			"cant cope",
			"emotional breakdown",
			"severe anxiety",
			"severe depression",
			"burnout",
		},
	},
	{
		Name:   "workplace_toxicity",
		Weight: 1.5,
		Phrases: []string{
			"toxic workplace",
			"hostile environment",
			"abuse of power",
			"harassment",
			"retaliation",
			"bullied",
			"discriminated",
			"screamed at me",
			"yelled at me",
			"no action taken",
			"swept under rug",
			"covered up",
		},
	},
}

// emotionalWords feed the emotional-intensity signal used for confidence.
var emotionalWords = []string{
	"extremely", "severely", "terrible", "awful", "horrible",
	"devastating", "overwhelming", "unbearable", "impossible",
	"constantly", "always", "never", "every day", "all the time",
}

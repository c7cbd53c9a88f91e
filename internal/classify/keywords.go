package classify

import "regexp"

// ContentTypes is the primary category table.
var ContentTypes = Table{
	{
		Name: "ai_ml",
		Keywords: []string{
			"openai", "anthropic", "gpt", "llm", "prompt", "embedding",
			"neural", "tensorflow", "torch", "transformer", "machine learning", "chatbot",
		},
		Threshold: 0.3,
	},
	{
		Name: "automation",
		Keywords: []string{
			"schedule", "cron", "selenium", "automate", "batch", "watchdog",
			"subprocess", "workflow", "shutil", "os.walk", "rglob",
		},
		Patterns:  []*regexp.Regexp{regexp.MustCompile(`(?m)^#!\s*/`)},
		Threshold: 0.3,
	},
	{
		Name: "data_analysis",
		Keywords: []string{
			"pandas", "numpy", "dataframe", "matplotlib", "seaborn", "statistics",
			"plot", "dataset", "groupby", "mean(", "correlation",
		},
		Threshold: 0.3,
	},
	{
		Name: "web_development",
		Keywords: []string{
			"<html", "<div", "css", "javascript", "flask", "django", "fastapi",
			"endpoint", "react", "router", "localhost",
		},
		Patterns:  []*regexp.Regexp{regexp.MustCompile(`(?i)https?://`)},
		Threshold: 0.3,
	},
	{
		Name: "documentation",
		Keywords: []string{
			"readme", "guide", "tutorial", "documentation", "overview",
			"installation", "usage", "getting started", "table of contents",
		},
		Patterns:  []*regexp.Regexp{regexp.MustCompile(`(?m)^#{1,3} \S`)},
		Threshold: 0.35,
	},
	{
		Name: "media",
		Keywords: []string{
			"image", "video", "audio", ".mp3", ".mp4", ".png", ".jpg",
			"ffmpeg", "pillow", "thumbnail", "resolution",
		},
		Threshold: 0.3,
	},
	{
		Name: "social_media",
		Keywords: []string{
			"instagram", "tiktok", "twitter", "facebook", "followers",
			"hashtag", "caption", "telegram", "youtube", "reddit",
		},
		Patterns:  []*regexp.Regexp{regexp.MustCompile(`(?i)#[a-z][a-z0-9_]{2,}`)},
		Threshold: 0.3,
	},
	{
		Name: "finance",
		Keywords: []string{
			"revenue", "invoice", "payment", "price", "budget", "income",
			"expense", "stripe", "sales", "profit",
		},
		Patterns:  []*regexp.Regexp{regexp.MustCompile(`\$\d+(\.\d{2})?`)},
		Threshold: 0.3,
	},
	{
		Name: "configuration",
		Keywords: []string{
			"config", "settings", "api_key", "token", "setup", "environment",
			"dotenv", "credentials",
		},
		Patterns:  []*regexp.Regexp{regexp.MustCompile(`(?m)^[A-Z][A-Z0-9_]+=`)},
		Threshold: 0.35,
	},
	{
		Name: "creative_writing",
		Keywords: []string{
			"story", "chapter", "character", "poem", "lyrics", "novel",
			"narrative", "verse", "chorus",
		},
		Threshold: 0.3,
	},
	{
		Name: "testing",
		Keywords: []string{
			"assert", "pytest", "unittest", "mock", "fixture", "test_", "testing",
		},
		Threshold: 0.4,
	},
}

// Purposes is the secondary table describing what a file is for.
var Purposes = Table{
	{
		Name:      "analysis",
		Keywords:  []string{"analyze", "analysis", "report", "insight", "metrics", "score"},
		Threshold: 0.3,
	},
	{
		Name:      "generation",
		Keywords:  []string{"generate", "create", "render", "synthesize", "compose", "template"},
		Threshold: 0.3,
	},
	{
		Name:      "organization",
		Keywords:  []string{"organize", "sort", "rename", "move", "categorize", "cleanup"},
		Threshold: 0.3,
	},
	{
		Name:      "integration",
		Keywords:  []string{"api", "client", "request", "webhook", "upload", "download"},
		Threshold: 0.3,
	},
	{
		Name:      "utility",
		Keywords:  []string{"helper", "util", "convert", "parse", "format", "tool"},
		Threshold: 0.3,
	},
	{
		Name:      "reference",
		Keywords:  []string{"notes", "todo", "reference", "cheatsheet", "example", "snippet"},
		Threshold: 0.3,
	},
}

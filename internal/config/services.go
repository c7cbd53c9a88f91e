package config

import "os"

// APIService describes a third-party API whose key may be present in the
// environment.
type APIService struct {
	Name    string
	URL     string
	EnvVar  string
	Enabled bool
}

// Configured reports whether the service's key is set.
func (s APIService) Configured() bool {
	return os.Getenv(s.EnvVar) != ""
}

// Services is the static registry of known API services.
var Services = []APIService{
	{Name: "OpenAI", URL: "https://api.openai.com", EnvVar: "OPENAI_API_KEY", Enabled: true},
	{Name: "Anthropic", URL: "https://api.anthropic.com", EnvVar: "ANTHROPIC_API_KEY", Enabled: true},
	{Name: "Cohere", URL: "https://api.cohere.com", EnvVar: "COHERE_API_KEY", Enabled: true},
	{Name: "Perplexity", URL: "https://api.perplexity.ai", EnvVar: "PERPLEXITY_API_KEY", Enabled: true},
	{Name: "Groq", URL: "https://api.groq.com", EnvVar: "GROQ_API_KEY", Enabled: true},
	{Name: "Mistral", URL: "https://api.mistral.ai", EnvVar: "MISTRAL_API_KEY", Enabled: true},
	{Name: "Google Gemini", URL: "https://generativelanguage.googleapis.com", EnvVar: "GEMINI_API_KEY", Enabled: true},
	{Name: "DeepSeek", URL: "https://api.deepseek.com", EnvVar: "DEEPSEEK_API_KEY", Enabled: true},
	{Name: "Together AI", URL: "https://api.together.xyz", EnvVar: "TOGETHER_API_KEY", Enabled: true},
	{Name: "OpenRouter", URL: "https://openrouter.ai/api", EnvVar: "OPENROUTER_API_KEY", Enabled: true},
	{Name: "Hugging Face", URL: "https://huggingface.co", EnvVar: "HUGGINGFACE_API_KEY", Enabled: true},
	{Name: "Replicate", URL: "https://api.replicate.com", EnvVar: "REPLICATE_API_TOKEN", Enabled: false},
	{Name: "Stability AI", URL: "https://api.stability.ai", EnvVar: "STABILITY_API_KEY", Enabled: false},
	{Name: "Leonardo AI", URL: "https://cloud.leonardo.ai", EnvVar: "LEONARDO_API_KEY", Enabled: false},
	{Name: "ElevenLabs", URL: "https://api.elevenlabs.io", EnvVar: "ELEVENLABS_API_KEY", Enabled: false},
	{Name: "AssemblyAI", URL: "https://api.assemblyai.com", EnvVar: "ASSEMBLYAI_API_KEY", Enabled: false},
	{Name: "Deepgram", URL: "https://api.deepgram.com", EnvVar: "DEEPGRAM_API_KEY", Enabled: false},
	{Name: "Mem0", URL: "https://api.mem0.ai", EnvVar: "MEM0_API_KEY", Enabled: false},
	{Name: "Pinecone", URL: "https://api.pinecone.io", EnvVar: "PINECONE_API_KEY", Enabled: false},
	{Name: "Qdrant", URL: "https://cloud.qdrant.io", EnvVar: "QDRANT_API_KEY", Enabled: false},
	{Name: "Tavily", URL: "https://api.tavily.com", EnvVar: "TAVILY_API_KEY", Enabled: false},
	{Name: "SerpAPI", URL: "https://serpapi.com", EnvVar: "SERPAPI_API_KEY", Enabled: false},
	{Name: "NewsAPI", URL: "https://newsapi.org", EnvVar: "NEWSAPI_KEY", Enabled: false},
	{Name: "GitHub", URL: "https://api.github.com", EnvVar: "GITHUB_TOKEN", Enabled: false},
	{Name: "Notion", URL: "https://api.notion.com", EnvVar: "NOTION_API_KEY", Enabled: false},
	{Name: "Telegram", URL: "https://api.telegram.org", EnvVar: "TELEGRAM_BOT_TOKEN", Enabled: false},
	{Name: "Slack", URL: "https://slack.com/api", EnvVar: "SLACK_BOT_TOKEN", Enabled: false},
	{Name: "Discord", URL: "https://discord.com/api", EnvVar: "DISCORD_BOT_TOKEN", Enabled: false},
	{Name: "YouTube Data", URL: "https://www.googleapis.com/youtube", EnvVar: "YOUTUBE_API_KEY", Enabled: false},
	{Name: "Ollama", URL: "http://localhost:11434", EnvVar: "OLLAMA_HOST", Enabled: true},
}

// LookupService returns the registry entry whose EnvVar matches, if any.
func LookupService(envVar string) (APIService, bool) {
	for _, s := range Services {
		if s.EnvVar == envVar {
			return s, true
		}
	}
	return APIService{}, false
}

package config

const defaultSystemPrompt = `You are MedOryx, an assistant for exploring the OnSIDES adverse drug event database.
The database contains drug-adverse event pairs extracted from drug labels, covering thousands of drug ingredients.
Use the SQL tools to inspect the schema before querying, prefer precise queries with LIMIT clauses, and answer in plain language, citing the tables you used.`

// Defaults returns a Config with sensible default values. Credentials and
// the database URL are deliberately absent: those come from the environment.
func Defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			SystemPrompt: defaultSystemPrompt,
			MaxTokens:    4096,
			Temperature:  0.7,
			MaxToolCalls: 20,
		},
		LLM: LLMConfig{
			Provider: "anthropic",
			Model:    "claude-3-7-sonnet-latest",
		},
		MCP: MCPConfig{
			Command: "adesql-mcp",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Channels: ChannelsConfig{},
		Privacy: PIIFilterConfig{
			Enabled:      true,
			FilterEmails: true,
			FilterPhones: true,
			FilterSSN:    true,
		},
	}
}

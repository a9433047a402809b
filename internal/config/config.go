package config

import "fmt"

// Config is the top-level application configuration.
type Config struct {
	Agent    AgentConfig     `json:"agent"`
	LLM      LLMConfig       `json:"llm"`
	Fallback *LLMConfig      `json:"fallback_llm,omitempty"`
	Database DatabaseConfig  `json:"database"`
	MCP      MCPConfig       `json:"mcp"`
	HTTP     HTTPConfig      `json:"http"`
	Channels ChannelsConfig  `json:"channels"`
	Privacy  PIIFilterConfig `json:"privacy"`
}

type AgentConfig struct {
	SystemPrompt string  `json:"system_prompt"`
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float64 `json:"temperature"`
	MaxToolCalls int     `json:"max_tool_calls"`
}

type LLMConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"-"` // resolved from env/keyring, never written to disk
	BaseURL  string `json:"base_url,omitempty"`
}

// DatabaseConfig carries the connection string for the adverse-drug-event
// database. The app itself never opens it; the MCP server subprocess does.
type DatabaseConfig struct {
	URL string `json:"-"`
}

// MCPConfig describes how to launch the SQL tool server subprocess.
type MCPConfig struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

type HTTPConfig struct {
	Addr string `json:"addr"`
}

type ChannelsConfig struct {
	Console  bool            `json:"console"`
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

type TelegramConfig struct {
	Token      string  `json:"-"`
	AllowedIDs []int64 `json:"allowed_ids,omitempty"`
}

type PIIFilterConfig struct {
	Enabled      bool `json:"enabled"`
	FilterEmails bool `json:"filter_emails"`
	FilterPhones bool `json:"filter_phones"`
	FilterSSN    bool `json:"filter_ssn"`
}

// Error is a startup configuration error. It is fatal: the app must not
// begin serving while one is outstanding.
type Error struct {
	Var    string
	Reason string
}

func (e *Error) Error() string {
	if e.Var != "" {
		return fmt.Sprintf("configuration: %s (%s)", e.Reason, e.Var)
	}
	return "configuration: " + e.Reason
}

// Validate checks the preconditions for startup: an LLM credential and a
// database connection string for the SQL tool server.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return &Error{Var: credentialVar(c.LLM.Provider), Reason: "missing LLM API credential"}
	}
	if c.Database.URL == "" {
		return &Error{Var: EnvDatabaseURL, Reason: "missing database connection string"}
	}
	if c.MCP.Command == "" {
		return &Error{Reason: "missing MCP server command"}
	}
	return nil
}

func credentialVar(provider string) string {
	if provider == "openai" {
		return EnvOpenAIKey
	}
	return EnvAnthropicKey
}

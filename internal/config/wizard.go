package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to askdoc! Let's configure your service.")
	fmt.Println()

	cfg := DefaultConfig()

	modelPrompt := promptui.Select{
		Label: "Select chat model",
		Items: []string{"gpt-4o", "gpt-4o-mini", "gpt-4"},
	}
	_, model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}
	cfg.Model = model

	embedPrompt := promptui.Select{
		Label: "Select embedding model",
		Items: []string{"text-embedding-3-small", "text-embedding-3-large"},
	}
	_, embedModel, err := embedPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding model selection: %w", err)
	}
	cfg.EmbeddingModel = embedModel

	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	tokenPrompt := promptui.Prompt{
		Label:   "API auth token (empty disables auth)",
		Default: "",
	}
	token, err := tokenPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("auth token: %w", err)
	}
	cfg.AuthToken = token

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	fmt.Println("Set OPENAI_API_KEY in your environment before starting the server.")
	return cfg, nil
}

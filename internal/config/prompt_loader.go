package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadedPrompts holds prompt text resolved from files or inline config. Empty
// fields mean the built-in default applies.
type LoadedPrompts struct {
	System string
	User   string
}

// GetMatchPrompts returns the custom prompts for the match operation. Files
// win over inline text and operation settings win over global ones.
func (c *Config) GetMatchPrompts() LoadedPrompts {
	op := c.AI.Match.CustomPrompts
	global := c.AI.CustomPrompts
	return LoadedPrompts{
		System: firstNonEmpty(c.prompts.System, op.SystemPrompt, global.SystemPrompt),
		User:   firstNonEmpty(c.prompts.User, op.UserPrompt, global.UserPrompt),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	systemFile := firstNonEmpty(c.AI.Match.CustomPrompts.SystemPromptFile, c.AI.CustomPrompts.SystemPromptFile)
	userFile := firstNonEmpty(c.AI.Match.CustomPrompts.UserPromptFile, c.AI.CustomPrompts.UserPromptFile)

	loaded := 0
	if systemFile != "" {
		content, err := loadPromptFromFile(systemFile, "system")
		if err != nil {
			return err
		}
		c.prompts.System = content
		loaded++
	}
	if userFile != "" {
		content, err := loadPromptFromFile(userFile, "user")
		if err != nil {
			return err
		}
		c.prompts.User = content
		loaded++
	}

	if loaded == 0 {
		log.Println("[CONFIG] No custom prompt files loaded - using inline or built-in prompts")
	} else {
		log.Printf("[CONFIG] Total custom prompt files loaded: %d", loaded)
	}
	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", promptType, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s prompt file not found: %s", promptType, absPath)
		}
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", promptType, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", promptType, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s prompt from file: %s (%d characters)",
		promptType, absPath, len(trimmed))
	return trimmed, nil
}

// validatePromptFiles validates that prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType string) {
		if filePath == "" {
			return
		}
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s prompt: %s", promptType, filePath))
			return
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s prompt file not found: %s", promptType, absPath))
		}
	}

	validateFile(c.AI.CustomPrompts.SystemPromptFile, "global system")
	validateFile(c.AI.CustomPrompts.UserPromptFile, "global user")
	validateFile(c.AI.Match.CustomPrompts.SystemPromptFile, "match system")
	validateFile(c.AI.Match.CustomPrompts.UserPromptFile, "match user")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}

package config

import "time"

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, signingSecret, apiURL string) *Slack {
	return &Slack{
		botToken:      botToken,
		signingSecret: signingSecret,
		apiURL:        apiURL,
		cacheTTL:      time.Minute,
	}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

// NewGitHubForTest creates a GitHub config for testing purposes
func NewGitHubForTest(appID, installationID int, privateKey, owner, repo string) *GitHub {
	return &GitHub{
		appID:          appID,
		installationID: installationID,
		privateKey:     privateKey,
		owner:          owner,
		repo:           repo,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string) *Repository {
	return &Repository{
		backend:   backend,
		projectID: projectID,
	}
}

// NewAppConfigForTest creates an AppConfig pointing at path
func NewAppConfigForTest(path string) *AppConfig {
	return &AppConfig{path: path}
}

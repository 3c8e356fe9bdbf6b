package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	setAIDefaults(v)
	setMLDefaults(v)
	setMatchDefaults(v)
	setJobsDefaults(v)
	setServerDefaults(v)
	setAppDefaults(v)
	setVaultDefaults(v)
	setObservabilityDefaults(v)
}

func setAIDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 20*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 1)
	v.SetDefault("ai.temperature", 0.2) // Low temperature for consistent scoring
	v.SetDefault("ai.useSystemPrompts", true)

	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("ai.match.provider", "")
	v.SetDefault("ai.match.model", "")
	v.SetDefault("ai.match.apiKey", "")
}

func setMLDefaults(v *viper.Viper) {
	v.SetDefault("ml.enabled", false)
	v.SetDefault("ml.kind", "lstm")
	v.SetDefault("ml.endpoint", "http://localhost:8501")
	v.SetDefault("ml.modelName", "resume_matcher")
	v.SetDefault("ml.tokenizerFile", "models/lstm_tokenizer.json")
	v.SetDefault("ml.resumeInput", "resume_input")
	v.SetDefault("ml.jobInput", "job_input")
	v.SetDefault("ml.textInput", "text")
	v.SetDefault("ml.maxSequenceLength", 0) // 0 picks the per-kind default
	v.SetDefault("ml.timeout", 10*time.Second)

	v.SetDefault("ml.circuitBreaker.enabled", true)
	v.SetDefault("ml.circuitBreaker.maxRequests", 2)
	v.SetDefault("ml.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ml.circuitBreaker.timeout", 30*time.Second)
	v.SetDefault("ml.circuitBreaker.minRequests", 3)
	v.SetDefault("ml.circuitBreaker.failureThreshold", 0.6)
}

func setMatchDefaults(v *viper.Viper) {
	v.SetDefault("match.defaultStrategy", "rule_based")
	v.SetDefault("match.llmTimeout", 20*time.Second)
	v.SetDefault("match.experienceThresholds", map[string]int{})
	v.SetDefault("match.seedSkillsFile", "")
	v.SetDefault("match.rankConcurrency", 4)
	v.SetDefault("match.rankLimit", 10)
}

func setJobsDefaults(v *viper.Viper) {
	v.SetDefault("jobs.source", "none")
	v.SetDefault("jobs.path", "jobs.yaml")
	v.SetDefault("jobs.dsn", "")
	v.SetDefault("jobs.table", "jobs")
	v.SetDefault("jobs.watch", false)
	v.SetDefault("jobs.debounceDelay", time.Second)
	v.SetDefault("jobs.maxOpenConns", 4)
	v.SetDefault("jobs.queryTimeout", 5*time.Second)
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second) // LLM strategy may take up to llmTimeout per job
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024)
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.apiKeys", []string{})

	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)
}

func setAppDefaults(v *viper.Viper) {
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB
	v.SetDefault("app.envFile", "")
}

func setVaultDefaults(v *viper.Viper) {
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.jobsDatabase", "")
}

func setObservabilityDefaults(v *viper.Viper) {
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumatch")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.customMetrics.matching.enabled", true)
	v.SetDefault("observability.customMetrics.matching.trackScores", true)
	v.SetDefault("observability.customMetrics.matching.trackFallbacks", true)
	v.SetDefault("observability.customMetrics.backends.enabled", true)
	v.SetDefault("observability.customMetrics.backends.trackDuration", true)
	v.SetDefault("observability.customMetrics.backends.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackVocabulary", true)

	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}

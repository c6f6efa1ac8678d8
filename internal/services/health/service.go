package health

// Status is the health payload.
type Status struct {
	OK            bool   `json:"ok"`
	Provider      string `json:"provider,omitempty"`
	Model         string `json:"model,omitempty"`
	LLMConfigured bool   `json:"llmConfigured"`
}

// Service encapsulates health-related checks.
type Service struct {
	provider   string
	model      string
	configured bool
}

// NewService constructs a new health service for the active model settings.
// configured reports whether a provider credential is present.
func NewService(provider, model string, configured bool) *Service {
	return &Service{provider: provider, model: model, configured: configured}
}

// Status returns the health payload. The process is healthy even without a
// credential; LLMConfigured tells the caller whether optimizations can succeed.
func (s *Service) Status() Status {
	if s == nil {
		return Status{OK: true}
	}
	return Status{OK: true, Provider: s.provider, Model: s.model, LLMConfigured: s.configured}
}

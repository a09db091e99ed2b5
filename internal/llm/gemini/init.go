package gemini

import "prepai/interview/internal/llm"

const ProviderName = "gemini"

func init() {
	llm.RegisterProvider(ProviderName, func() (llm.Provider, error) {
		cfg, err := NewConfig()
		if err != nil {
			return nil, err
		}
		return NewClient(cfg)
	})
}

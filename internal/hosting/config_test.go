package hosting

import "testing"

func TestNewProvider_Unregistered(t *testing.T) {
	_, err := NewProvider(Config{Provider: "bitbucket"})
	if err == nil {
		t.Fatal("NewProvider() with an unregistered provider should return an error")
	}
}

func TestRegisterProvider_RoundTrip(t *testing.T) {
	const testType ProviderType = "test-provider"
	called := false
	RegisterProvider(testType, func(cfg Config) (Provider, error) {
		called = true
		return nil, nil
	})

	if _, err := NewProvider(Config{Provider: string(testType)}); err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if !called {
		t.Fatal("registered constructor was not invoked")
	}
}

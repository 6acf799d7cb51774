package secrets

import "testing"

func TestEnvProvider(t *testing.T) {
	t.Setenv("TEST_API_KEY", "abc123")
	key, err := Env{Var: "TEST_API_KEY"}.APIKey()
	if err != nil {
		t.Fatalf("APIKey failed: %v", err)
	}
	if key != "abc123" {
		t.Errorf("unexpected key: %s", key)
	}
}

func TestEnvProviderMissing(t *testing.T) {
	t.Setenv("TEST_API_KEY", "")
	if _, err := (Env{Var: "TEST_API_KEY"}).APIKey(); err == nil {
		t.Fatal("expected error for unset variable")
	}
}

func TestChainProvider(t *testing.T) {
	t.Setenv("TEST_API_KEY", "")
	chain := Chain{Env{Var: "TEST_API_KEY"}, Static("fallback")}
	key, err := chain.APIKey()
	if err != nil {
		t.Fatalf("APIKey failed: %v", err)
	}
	if key != "fallback" {
		t.Errorf("unexpected key: %s", key)
	}
}

func TestChainProviderEmpty(t *testing.T) {
	if _, err := (Chain{}).APIKey(); err == nil {
		t.Fatal("expected error for empty chain")
	}
}

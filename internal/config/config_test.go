package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Domain != DefaultDomain {
		t.Errorf("domain = %q, want %q", cfg.Domain, DefaultDomain)
	}
	if want := "wss://" + DefaultDomain + "/meetingHub"; cfg.RelayURL != want {
		t.Errorf("relay URL = %q, want %q", cfg.RelayURL, want)
	}
	if cfg.STUNServer != DefaultSTUN {
		t.Errorf("stun = %q, want %q", cfg.STUNServer, DefaultSTUN)
	}
	if cfg.VideoFile != "" || cfg.RecordDir != "" {
		t.Errorf("media options should default empty, got %+v", cfg)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("VCLASS_DOMAIN", "env.example.com")
	t.Setenv("VCLASS_STUN", "stun:env.example.com:3478")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Domain != "env.example.com" {
		t.Errorf("domain = %q, want env value", cfg.Domain)
	}
	if cfg.RelayURL != "wss://env.example.com/meetingHub" {
		t.Errorf("relay URL = %q, want env-derived", cfg.RelayURL)
	}
	if cfg.STUNServer != "stun:env.example.com:3478" {
		t.Errorf("stun = %q, want env value", cfg.STUNServer)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("VCLASS_DOMAIN", "env.example.com")

	cfg, err := Load(Options{Domain: "flag.example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Domain != "flag.example.com" {
		t.Errorf("domain = %q, want flag value", cfg.Domain)
	}
}

func TestGetRoomLink(t *testing.T) {
	cfg := &Config{Domain: "class.example.com"}
	got := cfg.GetRoomLink("5f2a7c1e-9b3d-4e8f-a1c6-d7e8f9a0b1c2")
	want := "https://class.example.com/meeting/5f2a7c1e-9b3d-4e8f-a1c6-d7e8f9a0b1c2?role=student"
	if got != want {
		t.Errorf("room link = %q, want %q", got, want)
	}
}

func TestGetTURNServers(t *testing.T) {
	cfg := &Config{TURNServer: "turn:relay.example.com"}
	servers := cfg.GetTURNServers()
	if len(servers) != 2 {
		t.Fatalf("got %d TURN urls, want 2", len(servers))
	}
	if servers[0] != "turn:relay.example.com:80?transport=tcp" {
		t.Errorf("servers[0] = %q", servers[0])
	}
	if servers[1] != "turn:relay.example.com:443?transport=tcp" {
		t.Errorf("servers[1] = %q", servers[1])
	}
}

func TestGetTURNServers_EmptyWhenUnset(t *testing.T) {
	cfg := &Config{}
	if servers := cfg.GetTURNServers(); servers != nil {
		t.Errorf("got %v, want nil", servers)
	}
}

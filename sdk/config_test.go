package sdk

import "testing"

func TestClientConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  ClientConfig
		wantErr bool
	}{
		{
			name:   "valid https URL",
			config: ClientConfig{BaseURL: "https://fleet.example.com"},
		},
		{
			name:   "trims trailing slash",
			config: ClientConfig{BaseURL: "https://fleet.example.com/"},
		},
		{
			name:    "missing base URL",
			config:  ClientConfig{},
			wantErr: true,
		},
		{
			name:    "missing scheme",
			config:  ClientConfig{BaseURL: "fleet.example.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
			if tt.config.HTTPClient == nil {
				t.Error("Validate() did not set a default HTTPClient")
			}
			if tt.config.RetryAttempts != 3 {
				t.Errorf("RetryAttempts default = %d, want 3", tt.config.RetryAttempts)
			}
		})
	}
}

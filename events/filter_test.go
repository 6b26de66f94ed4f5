package events

import "testing"

func TestFilter_AllowAll(t *testing.T) {
	f := AllowAll()
	if !f.ShouldEmit(EventTokenCreated) {
		t.Error("allow-all filter rejected an event")
	}
}

func TestFilter_IncludeOnly(t *testing.T) {
	f := IncludeOnly(EventTokenCreated, EventTokenRevoked)

	if !f.ShouldEmit(EventTokenCreated) {
		t.Error("included type rejected")
	}
	if f.ShouldEmit(EventClientRegistered) {
		t.Error("unlisted type passed an include filter")
	}
}

func TestFilter_ExcludeEvents(t *testing.T) {
	f := ExcludeEvents(EventTokenValidated)

	if f.ShouldEmit(EventTokenValidated) {
		t.Error("excluded type passed")
	}
	if !f.ShouldEmit(EventTokenCreated) {
		t.Error("unlisted type rejected by an exclude filter")
	}
}

func TestFilterFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		types   []string
		emit    EventType
		want    bool
		wantErr bool
	}{
		{"empty mode allows all", "", nil, EventTokenCreated, true, false},
		{"allow_all", FilterModeAllowAll, nil, EventTokenCreated, true, false},
		{"include passes listed", FilterModeInclude, []string{"token_created"}, EventTokenCreated, true, false},
		{"include blocks unlisted", FilterModeInclude, []string{"token_created"}, EventTokenRevoked, false, false},
		{"exclude blocks listed", FilterModeExclude, []string{"token_created"}, EventTokenCreated, false, false},
		{"unknown mode errors", "denylist", nil, EventTokenCreated, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := FilterFromConfig(tt.mode, tt.types)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FilterFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := f.ShouldEmit(tt.emit); got != tt.want {
				t.Errorf("ShouldEmit(%s) = %v, want %v", tt.emit, got, tt.want)
			}
		})
	}
}

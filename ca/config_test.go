package ca

import "testing"

func TestConfig_DefaultIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfig_Validate_CollectsAllViolations(t *testing.T) {
	cfg := Config{
		Width:       10,   // below minWindowPx
		Height:      10,   // below minWindowPx
		CacheTiles:  -1,   // negative
		TileSize:    7,    // below minTileSize, not a multiple of workgroupWidth
		DebounceMS:  99999, // above maxDebounceMS
		MinCellSize: 0,    // must be > 0
		MaxCellSize: 0,    // < MinCellSize once MinCellSize is corrected... still 0 here
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want a ConfigError for a config with multiple violations")
	}
	cerr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
	if len(cerr.Errs) < 5 {
		t.Errorf("len(Errs) = %d, want at least 5 distinct violations reported, got: %v", len(cerr.Errs), cerr.Errs)
	}
}

func TestConfig_Validate_RejectsBadInitialStateCharacters(t *testing.T) {
	cfg := DefaultConfig()
	bad := "102"
	cfg.InitialState = &bad
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want an error for an invalid initial_state string")
	}
}

func TestConfig_Validate_AcceptsTileSizeMultipleOfWorkgroupWidth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TileSize = 512
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with TileSize=512 = %v, want nil", err)
	}
}

func TestConfig_Validate_RejectsMaxCellSizeBelowMin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinCellSize = 50
	cfg.MaxCellSize = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want an error when max_cell_size < min_cell_size")
	}
}

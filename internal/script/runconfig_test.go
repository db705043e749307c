package script

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDropCreate(t *testing.T) {
	tests := []struct {
		name    string
		flags   [3]bool
		want    DropCreate
		wantErr bool
	}{
		{"drop and create", [3]bool{true, false, false}, DropAndCreate, false},
		{"drop only", [3]bool{false, true, false}, DropOnly, false},
		{"create only", [3]bool{false, false, true}, CreateOnly, false},
		{"none", [3]bool{}, 0, true},
		{"two", [3]bool{true, true, false}, 0, true},
		{"all", [3]bool{true, true, true}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDropCreate(tt.flags[0], tt.flags[1], tt.flags[2])
			if tt.wantErr {
				var invalid *InvalidRunConfigError
				if !errors.As(err, &invalid) {
					t.Fatalf("expected InvalidRunConfigError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSchemeData(t *testing.T) {
	tests := []struct {
		name    string
		flags   [3]bool
		want    SchemeData
		wantErr bool
	}{
		{"schema and data", [3]bool{true, false, false}, SchemeAndData, false},
		{"schema only", [3]bool{false, true, false}, SchemeOnly, false},
		{"data only", [3]bool{false, false, true}, DataOnly, false},
		{"none", [3]bool{}, 0, true},
		{"two", [3]bool{false, true, true}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchemeData(tt.flags[0], tt.flags[1], tt.flags[2])
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseErrorNamesFlags(t *testing.T) {
	_, err := ParseDropCreate(true, false, true)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, s := range []string{"--script-drop-create", "--script-create"} {
		if !strings.Contains(msg, s) {
			t.Errorf("error %q should mention %s", msg, s)
		}
	}
}

func TestRunConfigPasses(t *testing.T) {
	tests := []struct {
		dc                   DropCreate
		sd                   SchemeData
		drop, create, insert bool
	}{
		{DropAndCreate, SchemeAndData, true, true, true},
		{DropAndCreate, SchemeOnly, true, true, false},
		{DropAndCreate, DataOnly, false, false, true},
		{DropOnly, SchemeAndData, true, false, true},
		{DropOnly, SchemeOnly, true, false, false},
		{CreateOnly, SchemeAndData, false, true, true},
		{CreateOnly, DataOnly, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.dc.String()+"/"+tt.sd.String(), func(t *testing.T) {
			c := RunConfig{DropCreate: tt.dc, SchemeData: tt.sd}
			if c.WantsDrop() != tt.drop {
				t.Errorf("WantsDrop = %v, want %v", c.WantsDrop(), tt.drop)
			}
			if c.WantsCreate() != tt.create {
				t.Errorf("WantsCreate = %v, want %v", c.WantsCreate(), tt.create)
			}
			if c.WantsData() != tt.insert {
				t.Errorf("WantsData = %v, want %v", c.WantsData(), tt.insert)
			}
		})
	}
}

func TestRunConfigValidate(t *testing.T) {
	if err := (RunConfig{Database: "Sales"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, db := range []string{"", "   "} {
		if err := (RunConfig{Database: db}).Validate(); err == nil {
			t.Errorf("expected error for database %q", db)
		}
	}
}

package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ledger/internal/config"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"supabase", Config{Type: SupabaseBackend, SupabaseURL: "https://x.supabase.co", SupabaseKey: "k"}, false},
		{"supabase without key", Config{Type: SupabaseBackend, SupabaseURL: "https://x.supabase.co"}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("nil config should fail")
	}
	c, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "a.db", AMQPQueue: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Type != SQLiteBackend || c.SQLiteDBPath != "a.db" || c.AMQPQueue != "q" {
		t.Errorf("unexpected config %+v", c)
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.csv")
	data := "date,description,type,category,amount\n2024-01-05,Salary,Income,Salary,5000\n"
	if err := os.WriteFile(seed, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).Create(context.Background(), Config{Type: MemoryBackend, SeedFile: seed})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer res.Close()

	list, err := res.Store.List(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if err := res.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	res, err := NewFactory(nil).Create(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer res.Close()
	if err := res.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

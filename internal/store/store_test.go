package store

import (
	"testing"
	"time"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		expectErr bool
	}{
		{
			name:      "missing dsn",
			config:    &Config{},
			expectErr: true,
		},
		{
			name:      "invalid timezone",
			config:    &Config{DSN: "postgres://localhost/db", Timezone: "Mars/Olympus_Mons"},
			expectErr: true,
		},
		{
			name:   "defaults timezone",
			config: &Config{DSN: "postgres://localhost/db"},
		},
		{
			name:   "explicit timezone",
			config: &Config{DSN: "postgres://localhost/db", Timezone: "UTC"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.config)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.loc == nil {
				t.Fatal("location not set")
			}
		})
	}
}

func TestNewRecord(t *testing.T) {
	s, err := New(&Config{DSN: "postgres://localhost/db"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	before := time.Now()
	record := s.NewRecord("question", "answer", "qwen3", 1500*time.Millisecond, "RELEVANT", "on topic")

	if record.ID == "" {
		t.Error("record id is empty")
	}
	if record.Question != "question" || record.Answer != "answer" {
		t.Errorf("question/answer = %q/%q", record.Question, record.Answer)
	}
	if record.ModelUsed != "qwen3" {
		t.Errorf("model used = %q", record.ModelUsed)
	}
	if record.ResponseTime != 1.5 {
		t.Errorf("response time = %v, want 1.5", record.ResponseTime)
	}
	if record.Relevance != "RELEVANT" || record.RelevanceExplanation != "on topic" {
		t.Errorf("relevance = %q/%q", record.Relevance, record.RelevanceExplanation)
	}
	if record.Timestamp.Location().String() != DefaultTimezone {
		t.Errorf("timestamp location = %v, want %s", record.Timestamp.Location(), DefaultTimezone)
	}
	if record.Timestamp.Before(before.Add(-time.Second)) {
		t.Errorf("timestamp %v predates test start", record.Timestamp)
	}
}

func TestNewRecordUniqueIDs(t *testing.T) {
	s, err := New(&Config{DSN: "postgres://localhost/db"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := s.NewRecord("q", "a", "m", time.Second, "UNKNOWN", "")
	b := s.NewRecord("q", "a", "m", time.Second, "UNKNOWN", "")
	if a.ID == b.ID {
		t.Errorf("consecutive records share id %s", a.ID)
	}
}

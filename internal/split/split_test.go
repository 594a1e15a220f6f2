package split

import (
	"errors"
	"testing"
	"time"

	"purchase-intent-lab/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func window(start, end string) domain.DateWindow {
	return domain.DateWindow{Start: day(start), End: day(end)}
}

func TestValidate_WindowTriples(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid disjoint ordered windows",
			config: Config{
				Train:    window("2017-06-01", "2017-06-30"),
				Evaluate: window("2017-07-01", "2017-07-15"),
				Score:    window("2017-07-16", "2017-07-31"),
			},
			wantErr: false,
		},
		{
			name: "train overlaps evaluate",
			config: Config{
				Train:    window("2017-06-01", "2017-07-05"),
				Evaluate: window("2017-07-01", "2017-07-15"),
				Score:    window("2017-07-16", "2017-07-31"),
			},
			wantErr: true,
		},
		{
			name: "evaluate overlaps score on a single shared day",
			config: Config{
				Train:    window("2017-06-01", "2017-06-30"),
				Evaluate: window("2017-07-01", "2017-07-16"),
				Score:    window("2017-07-16", "2017-07-31"),
			},
			wantErr: true,
		},
		{
			name: "train overlaps score",
			config: Config{
				Train:    window("2017-06-01", "2017-08-31"),
				Evaluate: window("2017-07-01", "2017-07-15"),
				Score:    window("2017-07-20", "2017-07-25"),
			},
			wantErr: true,
		},
		{
			name: "windows disjoint but out of chronological order",
			config: Config{
				Train:    window("2017-07-16", "2017-07-31"),
				Evaluate: window("2017-07-01", "2017-07-15"),
				Score:    window("2017-06-01", "2017-06-30"),
			},
			wantErr: true,
		},
		{
			name: "inverted train window",
			config: Config{
				Train:    window("2017-06-30", "2017-06-01"),
				Evaluate: window("2017-07-01", "2017-07-15"),
				Score:    window("2017-07-16", "2017-07-31"),
			},
			wantErr: true,
		},
		{
			name: "missing score window",
			config: Config{
				Train:    window("2017-06-01", "2017-06-30"),
				Evaluate: window("2017-07-01", "2017-07-15"),
			},
			wantErr: true,
		},
		{
			name: "single-day windows back to back",
			config: Config{
				Train:    window("2017-06-01", "2017-06-01"),
				Evaluate: window("2017-06-02", "2017-06-02"),
				Score:    window("2017-06-03", "2017-06-03"),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !errors.Is(err, ErrWindowConfig) {
					t.Errorf("Expected ErrWindowConfig, got %v", err)
				}
			} else if err != nil {
				t.Errorf("Expected valid config, got %v", err)
			}
		})
	}
}

func TestPartition(t *testing.T) {
	config := Config{
		Train:    window("2017-06-01", "2017-06-30"),
		Evaluate: window("2017-07-01", "2017-07-15"),
		Score:    window("2017-07-16", "2017-07-31"),
	}

	if got := config.Partition(window("2017-06-10", "2017-06-10")); got != PartitionTrain {
		t.Errorf("Expected train, got %q", got)
	}
	if got := config.Partition(window("2017-07-20", "2017-07-20")); got != PartitionScore {
		t.Errorf("Expected score, got %q", got)
	}
	if got := config.Partition(window("2018-01-01", "2018-01-01")); got != "" {
		t.Errorf("Expected no partition, got %q", got)
	}
}

package diagnose

import (
	"errors"
	"testing"
	"time"

	"cropdoc/internal/services"
)

// Minimal valid PNG header so MIME sniffing sees image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestParseCrop(t *testing.T) {
	tests := []struct {
		input string
		want  Crop
		ok    bool
	}{
		{"tomato", CropTomato, true},
		{"  Potato ", CropPotato, true},
		{"WHEAT", CropWheat, true},
		{"banana", Crop("banana"), false},
		{"", Crop(""), false},
	}
	for _, tt := range tests {
		got, ok := ParseCrop(tt.input)
		if ok != tt.ok {
			t.Errorf("ParseCrop(%q) ok = %v, want %v", tt.input, ok, tt.ok)
		}
		if ok && got != tt.want {
			t.Errorf("ParseCrop(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStageValidity(t *testing.T) {
	if !ValidStage(CropOnion, StageBulbing) {
		t.Error("bulbing should be valid for onion")
	}
	if ValidStage(CropTomato, StageBulbing) {
		t.Error("bulbing should not be valid for tomato")
	}
	if !ValidStage(CropWheat, StageTillering) {
		t.Error("tillering should be valid for wheat")
	}
	if !KnownStage(StageHeading) {
		t.Error("heading should be a known stage")
	}
	if KnownStage(GrowthStage("ripening")) {
		t.Error("ripening should not be a known stage")
	}
}

func TestSupportedCropsSorted(t *testing.T) {
	crops := SupportedCrops()
	if len(crops) != 10 {
		t.Fatalf("expected 10 crops, got %d", len(crops))
	}
	for i := 1; i < len(crops); i++ {
		if crops[i-1] >= crops[i] {
			t.Fatalf("crops not sorted: %q before %q", crops[i-1], crops[i])
		}
	}
}

func TestRequestValidate(t *testing.T) {
	limits := Limits{
		MaxImages:     2,
		MaxImageBytes: 64,
		AllowedMIME:   []string{"image/png", "image/jpeg"},
	}

	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{
			name: "symptoms only",
			req:  Request{Crop: CropTomato, Symptoms: "плями на листках"},
		},
		{
			name: "valid stage",
			req:  Request{Crop: CropTomato, GrowthStage: StageFruiting, Symptoms: "плями"},
		},
		{
			name:    "unknown crop",
			req:     Request{Crop: Crop("banana"), Symptoms: "плями"},
			wantErr: true,
		},
		{
			name:    "stage wrong for crop",
			req:     Request{Crop: CropTomato, GrowthStage: StageBulbing, Symptoms: "плями"},
			wantErr: true,
		},
		{
			name:    "unknown stage",
			req:     Request{Crop: CropTomato, GrowthStage: GrowthStage("ripening"), Symptoms: "плями"},
			wantErr: true,
		},
		{
			// Empty input is valid; the pipeline answers it with an
			// empty candidate list rather than a rejection.
			name: "empty input",
			req:  Request{Crop: CropTomato},
		},
		{
			name: "image only",
			req:  Request{Crop: CropTomato, Images: []Image{{Filename: "leaf.png", Data: pngHeader}}},
		},
		{
			name: "too many images",
			req: Request{Crop: CropTomato, Images: []Image{
				{Filename: "a.png", Data: pngHeader},
				{Filename: "b.png", Data: pngHeader},
				{Filename: "c.png", Data: pngHeader},
			}},
			wantErr: true,
		},
		{
			name:    "empty image",
			req:     Request{Crop: CropTomato, Images: []Image{{Filename: "a.png"}}},
			wantErr: true,
		},
		{
			name: "oversized image",
			req: Request{Crop: CropTomato, Images: []Image{
				{Filename: "a.png", Data: append(append([]byte{}, pngHeader...), make([]byte, 100)...)},
			}},
			wantErr: true,
		},
		{
			name: "disallowed type",
			req: Request{Crop: CropTomato, Images: []Image{
				{Filename: "a.txt", Data: []byte("plain text, not an image here")},
			}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(limits)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, services.ErrValidation) {
					t.Errorf("error should carry validation marker: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTraceLifecycle(t *testing.T) {
	tr := NewTrace("case-1")
	if tr.State != StateReceived {
		t.Fatalf("new trace state = %q, want %q", tr.State, StateReceived)
	}

	err := tr.Time("cv", func() error {
		time.Sleep(time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Timings["cv"] <= 0 {
		t.Error("cv timing should be recorded")
	}

	tr.Advance(StateVisionExtracted)
	tr.Annotate("vision degraded")
	tr.Complete()

	if tr.State != StateCompleted {
		t.Errorf("state = %q, want %q", tr.State, StateCompleted)
	}
	if tr.Timings["total"] <= 0 {
		t.Error("total timing should be recorded")
	}
	if len(tr.Annotations) != 1 {
		t.Errorf("annotations = %v", tr.Annotations)
	}
}

func TestTraceTimeRecordsOnFailure(t *testing.T) {
	tr := NewTrace("case-2")
	wantErr := errors.New("boom")
	err := tr.Time("cv", func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
	if _, ok := tr.Timings["cv"]; !ok {
		t.Error("timing must be recorded even when the stage fails")
	}
	tr.Fail(err)
	if tr.State != StateFailed || tr.Error == "" {
		t.Errorf("trace not marked failed: state=%q err=%q", tr.State, tr.Error)
	}
}

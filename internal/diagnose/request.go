package diagnose

import (
	"fmt"
	"net/http"
	"strings"

	"cropdoc/internal/services"
)

// Image carries one uploaded photo. Data is the raw file content.
type Image struct {
	Filename string
	Data     []byte
}

// Request is the immutable input to a diagnosis run. The pipeline never
// mutates it; all derived state lives on the Trace and Response.
type Request struct {
	Crop        Crop
	GrowthStage GrowthStage
	Symptoms    string
	Images      []Image
}

// Limits bounds what a request may carry. Zero values disable the
// corresponding check.
type Limits struct {
	MaxImages     int
	MaxImageBytes int64
	AllowedMIME   []string
}

// Validate rejects malformed requests before they enter the pipeline.
// All failures carry the validation marker so callers can map them to
// a client error rather than a pipeline failure.
func (r *Request) Validate(limits Limits) error {
	if _, ok := ParseCrop(string(r.Crop)); !ok {
		return services.Wrap(services.ErrValidation, "validate", "crop",
			fmt.Sprintf("unsupported crop %q", r.Crop), nil)
	}
	if r.GrowthStage != "" {
		if !KnownStage(r.GrowthStage) {
			return services.Wrap(services.ErrValidation, "validate", "growth_stage",
				fmt.Sprintf("unknown growth stage %q", r.GrowthStage), nil)
		}
		if !ValidStage(r.Crop, r.GrowthStage) {
			return services.Wrap(services.ErrValidation, "validate", "growth_stage",
				fmt.Sprintf("growth stage %q is not valid for crop %q", r.GrowthStage, r.Crop), nil)
		}
	}
	if limits.MaxImages > 0 && len(r.Images) > limits.MaxImages {
		return services.Wrap(services.ErrValidation, "validate", "images",
			fmt.Sprintf("too many images: %d exceeds limit of %d", len(r.Images), limits.MaxImages), nil)
	}
	for i, img := range r.Images {
		if len(img.Data) == 0 {
			return services.Wrap(services.ErrValidation, "validate", "images",
				fmt.Sprintf("image %d (%s) is empty", i, img.Filename), nil)
		}
		if limits.MaxImageBytes > 0 && int64(len(img.Data)) > limits.MaxImageBytes {
			return services.Wrap(services.ErrValidation, "validate", "images",
				fmt.Sprintf("image %d (%s) exceeds size limit of %d bytes", i, img.Filename, limits.MaxImageBytes), nil)
		}
		if len(limits.AllowedMIME) > 0 {
			mime := detectMIME(img.Data)
			if !mimeAllowed(mime, limits.AllowedMIME) {
				return services.Wrap(services.ErrValidation, "validate", "images",
					fmt.Sprintf("image %d (%s) has unsupported type %s", i, img.Filename, mime), nil)
			}
		}
	}
	return nil
}

func detectMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.TrimSpace(mime)
}

func mimeAllowed(mime string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(mime, a) {
			return true
		}
	}
	return false
}

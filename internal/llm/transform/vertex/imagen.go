// Package vertex implements the Vertex AI Imagen standard (SPEC_FULL.md
// §4.9): a minimal request/response mapping for Vertex's `:predict` image
// endpoint, grounded on
// original_source/siumai-provider-google-vertex/src/standards/vertex_imagen.rs.
//
// Image generation is out of the core's scope per SPEC_FULL.md §1, so this
// package is deliberately narrow: request/response transformers plus model
// and URL helpers (IsImagenModel, PredictURL), with no provider.Spec and no
// tool-loop or streaming orchestration wired to it.
package vertex

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ImageGenerationRequest is the unified shape a caller builds before
// rendering it into Vertex's instances[]/parameters{} wire body.
type ImageGenerationRequest struct {
	Model           string
	Prompt          string
	Count           int
	Seed            *int64
	AspectRatio     string
	NegativePrompt  string
	Size            string // set only to trigger the size-unsupported warning
	ReferenceImages any
	ProviderOpts    map[string]any // providerOpts["vertex"], Vercel-aligned key
	ExtraParams     map[string]any
}

// ImageEditRequest is the unified shape for Imagen's reference-image-based
// editing mode (inpainting/mask edits).
type ImageEditRequest struct {
	Model          string
	Prompt         string
	Image          []byte
	Mask           []byte
	Count          *int
	AspectRatio    string
	NegativePrompt string
	Size           string
	ProviderOpts   map[string]any
	ExtraParams    map[string]any
}

// GeneratedImage is one prediction decoded from a Vertex Imagen response.
type GeneratedImage struct {
	B64JSON       string
	Format        string
	RevisedPrompt string
	Metadata      map[string]any
}

// ImageGenerationResponse is the unified result of one :predict call.
type ImageGenerationResponse struct {
	Images   []GeneratedImage
	Metadata map[string]any
}

// Warning mirrors the teacher-grounded original's Warning::unsupported_setting,
// surfaced when a caller passes a field this standard silently ignores.
type Warning struct {
	Setting string
	Message string
}

// providerOptionsAllowlist lists the provider-option keys passed through
// verbatim into the predict parameters object, matching
// VERTEX_IMAGEN_PROVIDER_OPTIONS_ALLOWLIST in the grounding source.
var providerOptionsAllowlist = map[string]bool{
	"negativePrompt":   true,
	"personGeneration": true,
	"safetySetting":    true,
	"addWatermark":     true,
	"storageUri":       true,
	"sampleImageSize":  true,
}

var reservedParamKeys = map[string]bool{
	"edit":              true,
	"referenceImages":   true,
	"reference_images":  true,
	"negativePrompt":    true,
	"negative_prompt":   true,
	"aspectRatio":       true,
	"aspect_ratio":      true,
}

func bytesToInlineImage(b []byte) map[string]any {
	return map[string]any{
		"bytesBase64Encoded": base64.StdEncoding.EncodeToString(b),
	}
}

func aspectRatio(req ImageGenerationRequest) string {
	if req.AspectRatio != "" {
		return req.AspectRatio
	}
	return stringOpt(req.ProviderOpts, "aspectRatio", "aspect_ratio")
}

func negativePrompt(reqVal string, opts map[string]any) string {
	if reqVal != "" {
		return reqVal
	}
	return stringOpt(opts, "negativePrompt", "negative_prompt")
}

func stringOpt(opts map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := opts[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func mergeAllowlistedOpts(params map[string]any, opts map[string]any) {
	for k, v := range opts {
		if reservedParamKeys[k] || !providerOptionsAllowlist[k] {
			continue
		}
		params[k] = v
	}
}

func mergeExtraParams(params map[string]any, extra map[string]any) {
	for k, v := range extra {
		if reservedParamKeys[k] {
			continue
		}
		params[k] = v
	}
}

// TransformImageGenerationRequest renders an ImageGenerationRequest into the
// Vertex Imagen `:predict` wire body.
func TransformImageGenerationRequest(req ImageGenerationRequest) (map[string]any, error) {
	instance := map[string]any{"prompt": req.Prompt}
	if req.ReferenceImages != nil {
		instance["referenceImages"] = req.ReferenceImages
	} else if v, ok := req.ExtraParams["referenceImages"]; ok {
		instance["referenceImages"] = v
	}

	params := map[string]any{}
	if req.Count > 0 {
		params["sampleCount"] = req.Count
	}
	if req.Seed != nil {
		params["seed"] = *req.Seed
	}
	if ar := aspectRatio(req); ar != "" {
		params["aspectRatio"] = ar
	}
	if neg := negativePrompt(req.NegativePrompt, req.ProviderOpts); neg != "" {
		params["negativePrompt"] = neg
	}

	mergeAllowlistedOpts(params, req.ProviderOpts)
	mergeExtraParams(params, req.ExtraParams)

	return map[string]any{
		"instances":  []any{instance},
		"parameters": params,
	}, nil
}

// TransformImageEditRequest renders an ImageEditRequest into the reference-
// image-based editing `:predict` wire body (inpainting, mask edits).
func TransformImageEditRequest(req ImageEditRequest) (map[string]any, error) {
	instance := map[string]any{"prompt": req.Prompt}

	refImages := []any{
		map[string]any{
			"referenceId":   1,
			"referenceType": "REFERENCE_TYPE_RAW",
			"referenceImage": bytesToInlineImage(req.Image),
		},
	}

	if req.Mask != nil {
		maskImageConfig := map[string]any{"maskMode": "MASK_MODE_USER_PROVIDED"}
		editOpts, _ := req.ProviderOpts["edit"].(map[string]any)
		if editOpts != nil {
			if mode, ok := editOpts["maskMode"].(string); ok {
				maskImageConfig["maskMode"] = mode
			}
			if dilation, ok := editOpts["maskDilation"]; ok {
				maskImageConfig["dilation"] = dilation
			}
		}
		refImages = append(refImages, map[string]any{
			"referenceId":     2,
			"referenceType":   "REFERENCE_TYPE_MASK",
			"referenceImage":  bytesToInlineImage(req.Mask),
			"maskImageConfig": maskImageConfig,
		})
	}

	if v, ok := req.ExtraParams["referenceImages"]; ok {
		if arr, ok := v.([]any); ok {
			refImages = append(refImages, arr...)
		} else {
			refImages = append(refImages, v)
		}
	}
	instance["referenceImages"] = refImages

	params := map[string]any{}
	if req.Count != nil {
		params["sampleCount"] = *req.Count
	}
	if ar := aspectRatio(ImageGenerationRequest{AspectRatio: req.AspectRatio, ProviderOpts: req.ProviderOpts}); ar != "" {
		params["aspectRatio"] = ar
	}
	if req.Mask != nil {
		params["editMode"] = "EDIT_MODE_INPAINT_INSERTION"
	}

	editOpts, _ := req.ProviderOpts["edit"].(map[string]any)
	if editOpts != nil {
		if mode, ok := editOpts["mode"].(string); ok {
			params["editMode"] = mode
		}
		if baseSteps, ok := editOpts["baseSteps"]; ok {
			editConfig, _ := params["editConfig"].(map[string]any)
			if editConfig == nil {
				editConfig = map[string]any{}
				params["editConfig"] = editConfig
			}
			editConfig["baseSteps"] = baseSteps
		}
	}

	if neg := negativePrompt("", req.ProviderOpts); neg != "" {
		params["negativePrompt"] = neg
	}

	mergeAllowlistedOpts(params, req.ProviderOpts)
	mergeExtraParams(params, req.ExtraParams)

	return map[string]any{
		"instances":  []any{instance},
		"parameters": params,
	}, nil
}

// TransformImageResponse parses a Vertex `:predict` response body (already
// JSON-decoded into a generic map) into the unified ImageGenerationResponse.
func TransformImageResponse(raw map[string]any) (ImageGenerationResponse, error) {
	predsRaw, _ := raw["predictions"].([]any)
	images := make([]GeneratedImage, 0, len(predsRaw))

	for _, p := range predsRaw {
		obj, ok := p.(map[string]any)
		if !ok {
			continue
		}
		images = append(images, decodePrediction(obj))
	}

	metadata := map[string]any{}
	for _, k := range []string{"deployedModelId", "model", "modelVersionId"} {
		if v, ok := raw[k]; ok {
			metadata[k] = v
		}
	}

	return ImageGenerationResponse{Images: images, Metadata: metadata}, nil
}

func decodePrediction(obj map[string]any) GeneratedImage {
	b64, _ := obj["bytesBase64Encoded"].(string)
	if b64 == "" {
		b64, _ = obj["bytes_base64_encoded"].(string)
	}
	mime, _ := obj["mimeType"].(string)
	if mime == "" {
		mime, _ = obj["mime_type"].(string)
	}
	if nested, ok := obj["image"].(map[string]any); ok {
		if b64 == "" {
			b64, _ = nested["bytesBase64Encoded"].(string)
		}
		if mime == "" {
			mime, _ = nested["mimeType"].(string)
		}
	}
	revisedPrompt, _ := obj["prompt"].(string)

	meta := map[string]any{}
	skip := map[string]bool{
		"bytesBase64Encoded": true, "bytes_base64_encoded": true,
		"image": true, "mimeType": true, "mime_type": true, "prompt": true,
	}
	for k, v := range obj {
		if skip[k] {
			continue
		}
		meta[k] = v
	}

	return GeneratedImage{
		B64JSON:       b64,
		Format:        mime,
		RevisedPrompt: revisedPrompt,
		Metadata:      meta,
	}
}

// NormalizeModelID strips a "models/" prefix or "publishers/.../models/"
// path segment down to the bare Imagen model id, matching
// normalize_vertex_model_id in the grounding source.
func NormalizeModelID(model string) string {
	trimmed := strings.Trim(strings.TrimSpace(model), "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.LastIndex(trimmed, "/models/"); idx >= 0 {
		return trimmed[idx+len("/models/"):]
	}
	if rest, ok := strings.CutPrefix(trimmed, "models/"); ok {
		return rest
	}
	return trimmed
}

// LooksLikeVertexBaseURL reports whether a base URL points at Vertex AI's
// aiplatform API, matching looks_like_vertex_base_url.
func LooksLikeVertexBaseURL(baseURL string) bool {
	return strings.Contains(baseURL, "aiplatform.googleapis.com")
}

// IsImagenModel is the heuristic a registry uses to route a model name to
// this standard instead of Vertex's Gemini-dialect chat endpoint, matching
// is_vertex_imagen_model.
func IsImagenModel(model, baseURL string) bool {
	if !LooksLikeVertexBaseURL(baseURL) {
		return false
	}
	return strings.HasPrefix(strings.ToLower(NormalizeModelID(model)), "imagen")
}

// PredictURL builds the `:predict` endpoint for one model under a Vertex
// base URL, shared by generation, edit and variation requests (all three
// hit the same endpoint in the grounding source).
func PredictURL(baseURL, model string) string {
	base := strings.TrimRight(baseURL, "/")
	return fmt.Sprintf("%s/models/%s:predict", base, NormalizeModelID(model))
}

// SizeUnsupportedWarning returns the warning Imagen emits when a caller sets
// Size, which this standard does not support (use AspectRatio instead).
func SizeUnsupportedWarning(size string) *Warning {
	if size == "" {
		return nil
	}
	return &Warning{
		Setting: "size",
		Message: "This model does not support the `size` option. Use `aspectRatio` instead.",
	}
}

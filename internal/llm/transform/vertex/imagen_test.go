package vertex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformImageGenerationRequest_BuildsInstancesAndParameters(t *testing.T) {
	seed := int64(42)
	req := ImageGenerationRequest{
		Model:          "imagen-3.0-generate-001",
		Prompt:         "a red fox in snow",
		Count:          2,
		Seed:           &seed,
		AspectRatio:    "16:9",
		NegativePrompt: "blurry",
		ProviderOpts: map[string]any{
			"addWatermark": true,
			"unknownKey":   "dropped",
		},
	}

	body, err := TransformImageGenerationRequest(req)
	require.NoError(t, err)

	instances, ok := body["instances"].([]any)
	require.True(t, ok)
	require.Len(t, instances, 1)
	instance := instances[0].(map[string]any)
	assert.Equal(t, "a red fox in snow", instance["prompt"])

	params := body["parameters"].(map[string]any)
	assert.Equal(t, 2, params["sampleCount"])
	assert.Equal(t, int64(42), params["seed"])
	assert.Equal(t, "16:9", params["aspectRatio"])
	assert.Equal(t, "blurry", params["negativePrompt"])
	assert.Equal(t, true, params["addWatermark"])
	assert.NotContains(t, params, "unknownKey")
}

func TestTransformImageGenerationRequest_ReferenceImagesFromExtraParams(t *testing.T) {
	req := ImageGenerationRequest{
		Prompt:      "a cat",
		ExtraParams: map[string]any{"referenceImages": []any{map[string]any{"referenceId": 1}}},
	}

	body, err := TransformImageGenerationRequest(req)
	require.NoError(t, err)
	instance := body["instances"].([]any)[0].(map[string]any)
	assert.NotNil(t, instance["referenceImages"])
}

func TestTransformImageEditRequest_EncodesBaseAndMaskReferenceImages(t *testing.T) {
	count := 1
	req := ImageEditRequest{
		Prompt: "remove the hat",
		Image:  []byte("fake-image-bytes"),
		Mask:   []byte("fake-mask-bytes"),
		Count:  &count,
		ProviderOpts: map[string]any{
			"edit": map[string]any{
				"mode":         "EDIT_MODE_BGSWAP",
				"maskMode":     "MASK_MODE_BACKGROUND",
				"baseSteps":    float64(20),
				"maskDilation": float64(0.01),
			},
		},
	}

	body, err := TransformImageEditRequest(req)
	require.NoError(t, err)

	instance := body["instances"].([]any)[0].(map[string]any)
	refImages := instance["referenceImages"].([]any)
	require.Len(t, refImages, 2)

	base := refImages[0].(map[string]any)
	assert.Equal(t, "REFERENCE_TYPE_RAW", base["referenceType"])
	baseImg := base["referenceImage"].(map[string]any)
	assert.NotEmpty(t, baseImg["bytesBase64Encoded"])

	mask := refImages[1].(map[string]any)
	assert.Equal(t, "REFERENCE_TYPE_MASK", mask["referenceType"])
	maskCfg := mask["maskImageConfig"].(map[string]any)
	assert.Equal(t, "MASK_MODE_BACKGROUND", maskCfg["maskMode"])
	assert.Equal(t, float64(0.01), maskCfg["dilation"])

	params := body["parameters"].(map[string]any)
	assert.Equal(t, 1, params["sampleCount"])
	assert.Equal(t, "EDIT_MODE_BGSWAP", params["editMode"])
	editConfig := params["editConfig"].(map[string]any)
	assert.Equal(t, float64(20), editConfig["baseSteps"])
}

func TestTransformImageEditRequest_DefaultsEditModeToInpaintWhenMaskPresentWithoutEditOpts(t *testing.T) {
	req := ImageEditRequest{
		Prompt: "fill the gap",
		Image:  []byte("img"),
		Mask:   []byte("mask"),
	}

	body, err := TransformImageEditRequest(req)
	require.NoError(t, err)
	params := body["parameters"].(map[string]any)
	assert.Equal(t, "EDIT_MODE_INPAINT_INSERTION", params["editMode"])
}

func TestTransformImageResponse_DecodesPredictionsAndMetadata(t *testing.T) {
	raw := map[string]any{
		"predictions": []any{
			map[string]any{
				"bytesBase64Encoded": "YWJj",
				"mimeType":           "image/png",
				"prompt":             "a red fox in snow, enhanced",
				"safetyAttributes":   map[string]any{"blocked": false},
			},
		},
		"deployedModelId": "123",
		"model":           "imagen-3.0-generate-001",
	}

	resp, err := TransformImageResponse(raw)
	require.NoError(t, err)
	require.Len(t, resp.Images, 1)
	img := resp.Images[0]
	assert.Equal(t, "YWJj", img.B64JSON)
	assert.Equal(t, "image/png", img.Format)
	assert.Equal(t, "a red fox in snow, enhanced", img.RevisedPrompt)
	assert.Contains(t, img.Metadata, "safetyAttributes")
	assert.Equal(t, "123", resp.Metadata["deployedModelId"])
}

func TestTransformImageResponse_NestedImageObjectFallback(t *testing.T) {
	raw := map[string]any{
		"predictions": []any{
			map[string]any{
				"image": map[string]any{
					"bytesBase64Encoded": "ZGVm",
					"mimeType":           "image/jpeg",
				},
			},
		},
	}

	resp, err := TransformImageResponse(raw)
	require.NoError(t, err)
	require.Len(t, resp.Images, 1)
	assert.Equal(t, "ZGVm", resp.Images[0].B64JSON)
	assert.Equal(t, "image/jpeg", resp.Images[0].Format)
}

func TestNormalizeModelID(t *testing.T) {
	cases := map[string]string{
		"imagen-3.0-generate-001":                              "imagen-3.0-generate-001",
		"models/imagen-3.0-generate-001":                       "imagen-3.0-generate-001",
		"publishers/google/models/imagen-3.0-generate-001":     "imagen-3.0-generate-001",
		"/models/imagen-3.0-generate-001/":                     "imagen-3.0-generate-001",
		"":                                                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeModelID(in), "input %q", in)
	}
}

func TestIsImagenModel(t *testing.T) {
	assert.True(t, IsImagenModel("imagen-3.0-generate-001", "https://us-central1-aiplatform.googleapis.com/v1"))
	assert.False(t, IsImagenModel("gemini-1.5-pro", "https://us-central1-aiplatform.googleapis.com/v1"))
	assert.False(t, IsImagenModel("imagen-3.0-generate-001", "https://generativelanguage.googleapis.com/v1beta"))
}

func TestPredictURL(t *testing.T) {
	url := PredictURL("https://us-central1-aiplatform.googleapis.com/v1/", "models/imagen-3.0-generate-001")
	assert.Equal(t, "https://us-central1-aiplatform.googleapis.com/v1/models/imagen-3.0-generate-001:predict", url)
}

func TestSizeUnsupportedWarning(t *testing.T) {
	assert.Nil(t, SizeUnsupportedWarning(""))
	w := SizeUnsupportedWarning("1024x1024")
	require.NotNil(t, w)
	assert.Equal(t, "size", w.Setting)
}

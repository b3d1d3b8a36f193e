package normalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedDetectionResult: ответ модели не соответствует ожидаемой схеме.
var ErrMalformedDetectionResult = errors.New("malformed detection result")

// ============================================================
// Detection payload
// ============================================================

// Prediction описывает одну детекцию: центр, размеры в пикселях, класс и уверенность.
type Prediction struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Payload: разобранный ответ сервиса инференса.
type Payload struct {
	Predictions []Prediction `json:"predictions"`
	Image       *ImageSize   `json:"image,omitempty"`
}

type rawPrediction struct {
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Width      *float64 `json:"width"`
	Height     *float64 `json:"height"`
	Class      *string  `json:"class"`
	Confidence *float64 `json:"confidence"`
}

type rawImage struct {
	Width  flexInt `json:"width"`
	Height flexInt `json:"height"`
}

type rawPayload struct {
	Predictions *[]rawPrediction `json:"predictions"`
	Image       *rawImage        `json:"image"`
}

// DecodePayload разбирает JSON ответа. Любое нарушение схемы в predictions
// возвращается как ErrMalformedDetectionResult; image опционален и при
// кривых значениях просто считается отсутствующим.
func DecodePayload(data []byte) (*Payload, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedDetectionResult)
	}

	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDetectionResult, err)
	}
	if raw.Predictions == nil {
		return nil, fmt.Errorf("%w: missing predictions", ErrMalformedDetectionResult)
	}

	payload := &Payload{Predictions: make([]Prediction, 0, len(*raw.Predictions))}
	for i, rp := range *raw.Predictions {
		p, err := rp.validate()
		if err != nil {
			return nil, fmt.Errorf("%w: predictions[%d]: %v", ErrMalformedDetectionResult, i, err)
		}
		payload.Predictions = append(payload.Predictions, p)
	}

	if raw.Image != nil && raw.Image.Width > 0 && raw.Image.Height > 0 {
		payload.Image = &ImageSize{Width: int(raw.Image.Width), Height: int(raw.Image.Height)}
	}

	return payload, nil
}

func (rp rawPrediction) validate() (Prediction, error) {
	var missing []string
	if rp.X == nil {
		missing = append(missing, "x")
	}
	if rp.Y == nil {
		missing = append(missing, "y")
	}
	if rp.Width == nil {
		missing = append(missing, "width")
	}
	if rp.Height == nil {
		missing = append(missing, "height")
	}
	if rp.Class == nil || strings.TrimSpace(*rp.Class) == "" {
		missing = append(missing, "class")
	}
	if rp.Confidence == nil {
		missing = append(missing, "confidence")
	}
	if len(missing) > 0 {
		return Prediction{}, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	if *rp.Width < 0 || *rp.Height < 0 {
		return Prediction{}, fmt.Errorf("negative size %gx%g", *rp.Width, *rp.Height)
	}

	return Prediction{
		X:          *rp.X,
		Y:          *rp.Y,
		Width:      *rp.Width,
		Height:     *rp.Height,
		Class:      strings.TrimSpace(*rp.Class),
		Confidence: *rp.Confidence,
	}, nil
}

// flexInt принимает и число, и строку: хостинг Roboflow отдаёт
// размеры картинки строками.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(v)
	return nil
}

package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

const (
	// DefaultSentiment is shown when the service omits a prediction
	DefaultSentiment = "N/A"
)

// Result is the normalized outcome of one analysis.
type Result struct {
	Text       string   `json:"text"`
	Sentiment  string   `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	Entities   []string `json:"entities"` // "<label>: <text>", service order
}

// SentimentLine renders the sentiment row shown under the claim.
func (r *Result) SentimentLine() string {
	return "Sentiment: " + r.Sentiment
}

// ConfidenceLine renders the confidence row with two decimals.
func (r *Result) ConfidenceLine() string {
	return "Confidence: " + FormatConfidence(r.Confidence)
}

// FormatConfidence formats a score the way every surface displays it.
// Ties round away from zero, so 0.125 reads 0.13.
func FormatConfidence(c float64) string {
	rounded := math.Floor(math.Abs(c)*100+0.5) / 100
	return fmt.Sprintf("%.2f", math.Copysign(rounded, c))
}

// PredictRequest is the body posted to the prediction endpoint.
type PredictRequest struct {
	MedicalClaim string `json:"Medical_Claim"`
}

type entityPayload struct {
	Label json.RawMessage `json:"label"`
	Text  json.RawMessage `json:"text"`
}

// Normalize maps a prediction response body onto a Result.
//
// Every field is optional and decoded on its own. Missing, null, empty or
// mistyped values fall back to: sentiment "N/A", confidence 0, the submitted
// claimText, and no entities. Only a body that is not JSON at all fails.
func Normalize(body []byte, claimText string) (*Result, error) {
	if !json.Valid(body) {
		return nil, NewParseError("response is not valid JSON", fmt.Errorf("%d bytes", len(body)))
	}

	result := &Result{
		Text:      claimText,
		Sentiment: DefaultSentiment,
		Entities:  []string{},
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		// Valid JSON, just not an object
		return result, nil
	}

	var sentiment string
	if decodeField(fields, "Sentiment_Prediction", &sentiment) && sentiment != "" {
		result.Sentiment = sentiment
	}

	var score float64
	if decodeField(fields, "Sentiment_Score", &score) {
		result.Confidence = score
	}

	var text string
	if decodeField(fields, "Sentiment_Text", &text) && text != "" {
		result.Text = text
	}

	var rawEntities []json.RawMessage
	if decodeField(fields, "NER_Results", &rawEntities) {
		for _, raw := range rawEntities {
			var e entityPayload
			// A non-object element still occupies its slot with empty parts
			_ = json.Unmarshal(raw, &e)
			result.Entities = append(result.Entities, scalarText(e.Label)+": "+scalarText(e.Text))
		}
	}

	return result, nil
}

// decodeField unmarshals fields[name] into dst and reports whether it held
// a usable value of the right type.
func decodeField(fields map[string]json.RawMessage, name string, dst any) bool {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// scalarText renders a JSON string, number or boolean as plain text.
// Anything else renders empty.
func scalarText(raw json.RawMessage) string {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

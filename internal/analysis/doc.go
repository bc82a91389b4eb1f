// Package analysis submits medical claim text to the prediction service and
// normalizes what comes back.
//
// The service contract is a single route:
//
//	POST /Predict_Sentiment
//	{"Medical_Claim": "..."}
//
// answered with any subset of
//
//	{"Sentiment_Prediction": "...", "Sentiment_Score": 0.93,
//	 "Sentiment_Text": "...", "NER_Results": [{"label": "...", "text": "..."}]}
//
// Missing fields never fail a request; see Normalize for the defaults.
//
// # Errors
//
// Every failure is an *Error whose Type tells the caller what happened:
//
//   - ErrTypeAPI: non-2xx status, Error() is "API error: <code> <text>"
//   - ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
//     the request never produced a response
//   - ErrTypeParse: the 2xx body was not JSON
//
// ShortMessage and TroubleshootingHints turn an error into CLI or TUI text.
//
// # Retries
//
// A Client sends each claim exactly once unless MaxRetries is raised, in
// which case retryable errors (transport failures, 5xx, 429) back off
// exponentially from RetryDelay up to MaxRetryDelay.
package analysis

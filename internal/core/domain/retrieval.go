package domain

import "time"

// RetrievedChunk is one piece of retrieval evidence, traceable back to
// its originating document and chunk ordinal.
type RetrievedChunk struct {
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Answer is the result of a retrieval pass, optionally rewritten by the
// augmentation provider. When Augmented is false the text is a
// deterministic summary composed from the retrieved chunks.
type Answer struct {
	Text      string           `json:"text"`
	Augmented bool             `json:"augmented"`
	Chunks    []RetrievedChunk `json:"chunks"`
}

// NoRelevantContent is the answer text used when retrieval finds nothing.
const NoRelevantContent = "No relevant content was found for this query."

// QueryRequest is one chat turn submitted on a session. Exactly one of
// Text or Audio is set.
type QueryRequest struct {
	SessionID   string `json:"session_id"`
	Text        string `json:"text,omitempty"`
	Audio       []byte `json:"-"`
	AudioFormat string `json:"audio_format,omitempty"` // e.g. "wav", "ogg"
	Language    string `json:"language,omitempty"`     // hint for transcription
	TopK        int    `json:"top_k,omitempty"`
}

// IsAudio reports whether the submission carries an audio payload.
func (r *QueryRequest) IsAudio() bool {
	return len(r.Audio) > 0
}

// QueryResponse is the single terminal response emitted for a submission.
// Either Failure is set, or Answer carries a valid (possibly degraded) result.
type QueryResponse struct {
	SessionID  string           `json:"session_id"`
	Answer     string           `json:"answer,omitempty"`
	Augmented  bool             `json:"augmented,omitempty"`
	Transcript string           `json:"transcript,omitempty"`
	AudioURL   string           `json:"audio_url,omitempty"`
	Chunks     []RetrievedChunk `json:"chunks,omitempty"`
	Failure    *Failure         `json:"failure,omitempty"`
	Took       time.Duration    `json:"took"`
}

package dialogue

import (
	"strings"
	"testing"
)

func TestSnapshot_EncodeDecodeRoundTrip(t *testing.T) {
	confidence := 3
	snap := &Snapshot{
		UserID:   42,
		SenderID: "1234567890",
		State:    StateWaitingForFactAnswer,
		Draft: DraftFact{
			ID:         7,
			Question:   "What is the capital of France?",
			Confidence: &confidence,
		},
	}

	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(data), `"WAITING_FOR_FACT_ANSWER"`) {
		t.Errorf("Expected the state serialized by name, got %s", data)
	}

	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	if got.UserID != snap.UserID || got.SenderID != snap.SenderID || got.State != snap.State {
		t.Errorf("Expected %+v, got %+v", snap, got)
	}
	if got.Draft.ID != 7 || got.Draft.Question != snap.Draft.Question {
		t.Errorf("Expected the draft preserved, got %+v", got.Draft)
	}
	if got.Draft.Confidence == nil || *got.Draft.Confidence != confidence {
		t.Errorf("Expected confidence %d preserved, got %v", confidence, got.Draft.Confidence)
	}
}

func TestState_UnknownNameFallsBackToDefault(t *testing.T) {
	// A snapshot written by a newer version may carry a state name this
	// version does not know. It must degrade like a cache miss.
	got, err := DecodeSnapshot([]byte(`{"user_id":1,"sender_id":"s","state":"WAITING_FOR_SOMETHING_NEW","draft":{}}`))
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	if got.State != StateDefault {
		t.Errorf("Expected fallback to DEFAULT, got %s", got.State)
	}
}

func TestState_NonStringStateIsAnError(t *testing.T) {
	if _, err := DecodeSnapshot([]byte(`{"state":5}`)); err == nil {
		t.Error("Expected an error for a numeric state field")
	}
}

func TestDraftFact_Empty(t *testing.T) {
	if !(DraftFact{}).Empty() {
		t.Error("Expected the zero draft to be empty")
	}
	if (DraftFact{Question: "q"}).Empty() {
		t.Error("Expected a draft with a question to be non-empty")
	}
}

func TestNewSnapshot(t *testing.T) {
	snap := NewSnapshot(9, "sender-1")
	if snap.State != StateDefault {
		t.Errorf("Expected a fresh snapshot in DEFAULT, got %s", snap.State)
	}
	if !snap.Draft.Empty() {
		t.Errorf("Expected an empty draft, got %+v", snap.Draft)
	}
}

package nlp

import (
	"encoding/json"
	"testing"
)

func entity(confidence float64, value string) Candidate {
	return Candidate{Confidence: confidence, Value: json.RawMessage(value)}
}

func TestClassify_NilPayload(t *testing.T) {
	c := NewClassifier(0.7)

	got := c.Classify(nil)

	if got.Intent != IntentDefault {
		t.Errorf("Expected default_intent for a nil payload, got %s", got.Intent)
	}
	if got.Greeting || got.Duration != nil {
		t.Errorf("Expected no greeting and no duration, got %+v", got)
	}
}

func TestClassify_IntentAboveThreshold(t *testing.T) {
	c := NewClassifier(0.7)

	got := c.Classify(Entities{
		"intent": {entity(0.93, `"add_fact"`)},
	})

	if got.Intent != IntentAddFact {
		t.Errorf("Expected add_fact, got %s", got.Intent)
	}
	if got.Confidence != 0.93 {
		t.Errorf("Expected confidence 0.93, got %v", got.Confidence)
	}
}

func TestClassify_IntentBelowThreshold(t *testing.T) {
	c := NewClassifier(0.7)

	got := c.Classify(Entities{
		"intent": {entity(0.69, `"delete_fact"`)},
	})

	if got.Intent != IntentDefault {
		t.Errorf("Expected default_intent below the threshold, got %s", got.Intent)
	}
}

func TestClassify_PicksHighestConfidenceIntent(t *testing.T) {
	c := NewClassifier(0.7)

	got := c.Classify(Entities{
		"intent": {
			entity(0.75, `"view_facts"`),
			entity(0.91, `"change_fact"`),
			entity(0.80, `"delete_fact"`),
		},
	})

	if got.Intent != IntentChangeFact {
		t.Errorf("Expected the highest-confidence intent change_fact, got %s", got.Intent)
	}
}

func TestClassify_UnknownIntentName(t *testing.T) {
	c := NewClassifier(0.7)

	got := c.Classify(Entities{
		"intent": {entity(0.99, `"order_pizza"`)},
	})

	if got.Intent != IntentDefault {
		t.Errorf("Expected unknown intent names to fall back to default_intent, got %s", got.Intent)
	}
}

func TestClassify_Greeting(t *testing.T) {
	c := NewClassifier(0.7)

	got := c.Classify(Entities{
		"greetings": {entity(0.98, `"true"`)},
	})
	if !got.Greeting {
		t.Error("Expected a greeting above the threshold to be detected")
	}

	got = c.Classify(Entities{
		"greetings": {entity(0.4, `"true"`)},
	})
	if got.Greeting {
		t.Error("Expected a greeting below the threshold to be ignored")
	}
}

func TestClassify_DurationForms(t *testing.T) {
	c := NewClassifier(0.7)

	cases := []struct {
		name  string
		value string
		want  float64
	}{
		{"bare number", `3600`, 3600},
		{"wrapped value", `{"value": 1800}`, 1800},
		{"normalized value", `{"normalized": {"value": 7200, "unit": "second"}}`, 7200},
	}

	for _, tc := range cases {
		got := c.Classify(Entities{
			"duration": {entity(0.95, tc.value)},
		})
		if got.Duration == nil {
			t.Errorf("%s: expected a duration, got nil", tc.name)
			continue
		}
		if *got.Duration != tc.want {
			t.Errorf("%s: expected %v seconds, got %v", tc.name, tc.want, *got.Duration)
		}
	}
}

func TestClassify_DurationUnparsable(t *testing.T) {
	c := NewClassifier(0.7)

	got := c.Classify(Entities{
		"duration": {entity(0.95, `{"grain": "hour"}`)},
	})

	if got.Duration != nil {
		t.Errorf("Expected no duration for an unparsable value, got %v", *got.Duration)
	}
}

func TestClassify_DurationOnlyTopCandidate(t *testing.T) {
	c := NewClassifier(0.7)

	// The second candidate is confident enough, but only the first one counts.
	got := c.Classify(Entities{
		"duration": {entity(0.3, `600`), entity(0.99, `1200`)},
	})

	if got.Duration != nil {
		t.Errorf("Expected only the top candidate considered, got %v", *got.Duration)
	}
}

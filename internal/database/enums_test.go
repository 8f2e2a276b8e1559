package database

import "testing"

func TestValidRFITransition(t *testing.T) {
	allowed := []struct{ from, to RFIStatus }{
		{RFIOpen, RFIAnswered},
		{RFIOpen, RFIClosed},
		{RFIAnswered, RFIClosed},
	}
	for _, tc := range allowed {
		if !ValidRFITransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	// Same-state writes are not transitions; UpdateRFI skips the check for
	// them, so the function itself rejects them.
	forbidden := []struct{ from, to RFIStatus }{
		{RFIAnswered, RFIOpen},
		{RFIClosed, RFIOpen},
		{RFIClosed, RFIAnswered},
		{RFIOpen, RFIOpen},
		{RFIAnswered, RFIAnswered},
		{RFIClosed, RFIClosed},
	}
	for _, tc := range forbidden {
		if ValidRFITransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be rejected", tc.from, tc.to)
		}
	}
}

func TestEnumValidators(t *testing.T) {
	if !ValidTaskStatus("IN_PROGRESS") || ValidTaskStatus("in_progress") || ValidTaskStatus("") {
		t.Error("task status validation is case sensitive on the stored values")
	}
	if !ValidFieldType("select") || ValidFieldType("SELECT") {
		t.Error("field types are lower case")
	}
	if !ValidFieldScope("manufacturing") || ValidFieldScope("secret") {
		t.Error("unexpected field scope validation")
	}
	if !ValidRFIPriority("high") || ValidRFIPriority("urgent") {
		t.Error("unexpected rfi priority validation")
	}
}

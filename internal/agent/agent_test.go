package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docforge/internal/ai"
)

// fakeOracle replays canned responses and records the prompts it saw.
type fakeOracle struct {
	responses []string
	err       error
	calls     [][]ai.ChatMessage
	opts      []ai.CallOptions
}

func (f *fakeOracle) Complete(_ context.Context, _ ai.ChatConfig, messages []ai.ChatMessage, opts ai.CallOptions) (string, error) {
	f.calls = append(f.calls, messages)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return "", f.err
	}
	idx := len(f.calls) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func newTestAgents(o *fakeOracle) *Agents {
	return New(o, ai.ChatConfig{Model: "test"})
}

func TestClassifyNormalizesOutput(t *testing.T) {
	agents := newTestAgents(&fakeOracle{responses: []string{"  Legal \n"}})
	got, err := agents.Classify(context.Background(), "some contract text")
	if err != nil {
		t.Fatal(err)
	}
	if got != "legal" {
		t.Fatalf("Classify() = %q, want %q", got, "legal")
	}
}

func TestCallWrapsOracleError(t *testing.T) {
	agents := newTestAgents(&fakeOracle{err: errors.New("timeout")})
	_, err := agents.Classify(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error")
	}
	var oerr *ai.OracleError
	if !errors.As(err, &oerr) {
		t.Fatalf("error type = %T, want *ai.OracleError", err)
	}
	if oerr.Agent != "DocumentClassifier" {
		t.Fatalf("OracleError.Agent = %q", oerr.Agent)
	}
}

func TestExtractEntitiesUsesJSONMode(t *testing.T) {
	oracle := &fakeOracle{responses: []string{`{"parties": [], "dates": [], "locations": [], "legal_terms": [], "case_numbers": []}`}}
	agents := newTestAgents(oracle)
	if _, err := agents.ExtractEntities(context.Background(), "text"); err != nil {
		t.Fatal(err)
	}
	if oracle.opts[0].ResponseFormat != ai.FormatJSON {
		t.Fatal("entity extraction must request JSON mode")
	}
}

func TestAnalyzeDocumentSynthesizesFields(t *testing.T) {
	oracle := &fakeOracle{responses: []string{`{
		"title": "Quarterly Report",
		"document_type": "report",
		"fields": [
			{"name": "period", "label": "Period", "value": "Q1 2024", "type": "string", "confidence": 0.9, "editable": true}
		]
	}`}}
	agents := newTestAgents(oracle)

	analysis, err := agents.AnalyzeDocument(context.Background(), "A quarterly report about nothing in particular.")
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Title != "Quarterly Report" || analysis.DocumentType != "report" {
		t.Fatalf("analysis header = %q / %q", analysis.Title, analysis.DocumentType)
	}
	if len(analysis.Fields) < 5 {
		t.Fatalf("fields = %d, want at least 5", len(analysis.Fields))
	}
	if analysis.Fields[0].Name != "period" {
		t.Fatalf("model fields must come first, got %q", analysis.Fields[0].Name)
	}
	names := make(map[string]bool)
	for _, f := range analysis.Fields {
		if names[f.Name] {
			t.Fatalf("duplicate synthesized field %q", f.Name)
		}
		names[f.Name] = true
	}
}

func TestAnalyzeDocumentKeepsModelFields(t *testing.T) {
	oracle := &fakeOracle{responses: []string{`{
		"title": "Invoice 42",
		"document_type": "invoice",
		"fields": [
			{"name": "invoice_number", "label": "Invoice Number", "value": "42", "type": "string"},
			{"name": "amount", "label": "Amount", "value": "$500", "type": "number"},
			{"name": "due_date", "label": "Due Date", "value": "2024-01-01", "type": "date"},
			{"name": "vendor", "label": "Vendor", "value": "ACME", "type": "string"},
			{"name": "customer", "label": "Customer", "value": "Globex", "type": "string"},
			{"name": "terms", "label": "Terms", "value": "net 30", "type": "string"}
		]
	}`}}
	agents := newTestAgents(oracle)
	analysis, err := agents.AnalyzeDocument(context.Background(), "invoice text")
	if err != nil {
		t.Fatal(err)
	}
	if len(analysis.Fields) != 6 {
		t.Fatalf("fields = %d, want 6 (no padding past the minimum)", len(analysis.Fields))
	}
}

func TestAnalyzeDocumentUnparseableOutput(t *testing.T) {
	agents := newTestAgents(&fakeOracle{responses: []string{"I could not analyze this."}})
	if _, err := agents.AnalyzeDocument(context.Background(), "text"); err == nil {
		t.Fatal("expected error for unparseable analyzer output")
	}
}

func TestAnalyzeTypeDefaultsOnDecodeFailure(t *testing.T) {
	agents := newTestAgents(&fakeOracle{responses: []string{"not json", "also not json"}})
	analysis, err := agents.AnalyzeType(context.Background(), "whatever")
	if err != nil {
		t.Fatal(err)
	}
	if analysis.DocumentType != "Generic Document" || analysis.Category != "Unknown" || analysis.Confidence != 0.0 {
		t.Fatalf("defaults not applied: %+v", analysis)
	}
	if analysis.Registrable() {
		t.Fatal("default analysis must not be registrable")
	}
}

func TestAnalyzeTypeRegistrableGate(t *testing.T) {
	tests := []struct {
		docType    string
		confidence float64
		want       bool
	}{
		{"Invoice", 0.9, true},
		{"Invoice", 0.3, true},
		{"Invoice", 0.29, false},
		{"Unknown", 0.9, false},
		{"Generic Document", 0.9, false},
	}
	for _, tt := range tests {
		a := &TypeAnalysis{DocumentType: tt.docType, Confidence: tt.confidence}
		if got := a.Registrable(); got != tt.want {
			t.Errorf("Registrable(%q, %.2f) = %v, want %v", tt.docType, tt.confidence, got, tt.want)
		}
	}
}

func TestAnalyzeTypeTwoStage(t *testing.T) {
	oracle := &fakeOracle{responses: []string{
		`{"document_type": "Invoice", "confidence": 0.85, "category": "Finance", "key_identifiers": ["amount", "date"]}`,
		`{"fields": [{"name": "amount_due", "value": "$500", "required": true, "description": "Total amount due"}]}`,
	}}
	agents := newTestAgents(oracle)
	analysis, err := agents.AnalyzeType(context.Background(), "Invoice #123")
	if err != nil {
		t.Fatal(err)
	}
	if analysis.DocumentType != "Invoice" || analysis.Category != "Finance" {
		t.Fatalf("analysis = %+v", analysis)
	}
	if len(analysis.Fields) != 1 || analysis.Fields[0].Name != "amount_due" {
		t.Fatalf("fields = %+v", analysis.Fields)
	}
	if !analysis.Registrable() {
		t.Fatal("confident known type must be registrable")
	}
	// Stage two must reference the stage-one type.
	stageTwoPrompt := oracle.calls[1][0].Content
	if !strings.Contains(stageTwoPrompt, `"Invoice"`) {
		t.Fatalf("stage two prompt missing type: %s", stageTwoPrompt)
	}
}

func TestExtractVariables(t *testing.T) {
	oracle := &fakeOracle{responses: []string{"```json\n{\"variables\": [{\"key\": \"party_name\", \"label\": \"Party Name\", \"description\": \"d\", \"example\": \"John\", \"required\": true, \"type\": \"string\"},]}\n```"}}
	agents := newTestAgents(oracle)
	specs, err := agents.ExtractVariables(context.Background(), strings.Repeat("x", 5000))
	if err != nil {
		t.Fatal(err)
	}
	if len(specs) != 1 || specs[0].Key != "party_name" {
		t.Fatalf("specs = %+v", specs)
	}
	// Only the head of the text is sent to the fallback extractor.
	if len(oracle.calls[0][0].Content) > aggressiveExtractionWindow+len(variableExtractorPrompt) {
		t.Fatal("aggressive extraction sent more than the bounded window")
	}
}

func TestPrefillAbsenceMeansUnknown(t *testing.T) {
	oracle := &fakeOracle{responses: []string{`{"tenant_name": "Jane Smith", "rent_amount": ""}`}}
	agents := newTestAgents(oracle)
	got, err := agents.Prefill(context.Background(), "rental agreement for Jane Smith", []VariableRef{
		{Key: "tenant_name", Label: "Tenant's Name"},
		{Key: "rent_amount", Label: "Monthly Rent"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got["tenant_name"] != "Jane Smith" {
		t.Fatalf("tenant_name = %q", got["tenant_name"])
	}
	if _, present := got["rent_amount"]; present {
		t.Fatal("empty detections must be dropped, not returned as empty strings")
	}
}

func TestGenerateQuestionStripsQuotes(t *testing.T) {
	agents := newTestAgents(&fakeOracle{responses: []string{`"What is the policy number?"`}})
	got, err := agents.GenerateQuestion(context.Background(), "Policy number", "As printed on schedule")
	if err != nil {
		t.Fatal(err)
	}
	if got != "What is the policy number?" {
		t.Fatalf("GenerateQuestion() = %q", got)
	}
}

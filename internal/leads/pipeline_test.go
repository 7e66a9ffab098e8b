package leads

import (
	"testing"
)

func TestCleanEmptyInput(t *testing.T) {
	p := NewPipeline(nil)

	out := p.Clean(nil)
	if out == nil {
		t.Fatal("expected non-nil output for nil input")
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d records", len(out))
	}
}

func TestCleanNameCollision(t *testing.T) {
	p := NewPipeline(nil)

	out := p.Clean([]Lead{
		{BusinessName: "Test", PhoneNumber: "123", Website: "http://a.com"},
		{BusinessName: "Test", PhoneNumber: "456", Website: "http://b.com"},
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 record after name dedup, got %d", len(out))
	}
	// Scores tie, so the first-seen record survives; its short phone is
	// blanked by validation but the website keeps it in the final set.
	if out[0].Website != "http://a.com" {
		t.Errorf("expected first-seen record kept, got website %q", out[0].Website)
	}
	if out[0].PhoneNumber != "" {
		t.Errorf("expected invalid phone blanked, got %q", out[0].PhoneNumber)
	}
}

func TestCleanNameCollisionKeepsHigherScore(t *testing.T) {
	p := NewPipeline(nil)

	out := p.Clean([]Lead{
		{BusinessName: "Acme Plumbing", Website: "http://a.com"},
		{BusinessName: "Acme Plumbing LLC", Website: "http://b.com", Email: "hi@acme.com", PhoneNumber: "(555) 123-4567"},
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].Email != "hi@acme.com" {
		t.Errorf("expected higher-score record kept, got %+v", out[0])
	}
}

func TestCleanDropsEmptyNames(t *testing.T) {
	p := NewPipeline(nil)

	out := p.Clean([]Lead{
		{BusinessName: "", PhoneNumber: "123-456", Website: "http://a.com"},
		{BusinessName: "Valid", PhoneNumber: "", Website: "http://b.com"},
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].BusinessName != "Valid" {
		t.Errorf("expected Valid kept, got %q", out[0].BusinessName)
	}
}

func TestCleanDropsNoContact(t *testing.T) {
	p := NewPipeline(nil)

	out := p.Clean([]Lead{
		{BusinessName: "No Contact Business"},
		{BusinessName: "Valid Business", PhoneNumber: "(555) 123-4567"},
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].BusinessName != "Valid Business" {
		t.Errorf("expected Valid Business kept, got %q", out[0].BusinessName)
	}
}

func TestCleanEmailDedup(t *testing.T) {
	p := NewPipeline(nil)

	out := p.Clean([]Lead{
		{BusinessName: "First", Email: "info@acme.com"},
		{BusinessName: "Second", Email: "INFO@acme.com"},
		{BusinessName: "Third", Email: "other@acme.com"},
	})
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].BusinessName != "First" || out[1].BusinessName != "Third" {
		t.Errorf("unexpected survivors: %+v", out)
	}
	if out[0].Email != "info@acme.com" {
		t.Errorf("expected lowercase-normalized email, got %q", out[0].Email)
	}
}

func TestCleanWebsiteDedupSkipsGenericDomains(t *testing.T) {
	p := NewPipeline(nil)

	out := p.Clean([]Lead{
		{BusinessName: "Shop A", Website: "https://www.facebook.com/shopa"},
		{BusinessName: "Shop B", Website: "https://facebook.com/shopb"},
		{BusinessName: "Shop C", Website: "https://shopc.com"},
		{BusinessName: "Shop D", Website: "http://www.shopc.com/"},
	})
	// Facebook links never collide; shopc.com collapses across scheme/www.
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(out), out)
	}
	for _, l := range out {
		if l.BusinessName == "Shop D" {
			t.Error("expected Shop D deduped against Shop C")
		}
	}
}

func TestCleanIdempotentFilter(t *testing.T) {
	p := NewPipeline(nil)

	raw := []Lead{
		{BusinessName: "Test Restaurant", PhoneNumber: "(555) 123-4567", Website: "https://testrestaurant.com"},
		{BusinessName: "Another Business", PhoneNumber: "555-987-6543", Website: "https://anotherbusiness.com"},
	}
	once := p.Clean(raw)
	twice := p.Clean(once)
	if len(once) != 2 || len(twice) != len(once) {
		t.Fatalf("expected stable output, got %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("record %d changed on re-run: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestNormalizeBusinessName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Plumbing LLC", "acme plumbing"},
		{"Acme Plumbing - Brooklyn", "acme plumbing"},
		{"Acme | Best Plumbers", "acme"},
		{"Joe's Pizza, Inc.", "joes pizza"},
		{"Smith & Sons Ltd", "smith sons"},
		{"  Spaced   Out  Co  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeBusinessName(tt.in); got != tt.want {
			t.Errorf("NormalizeBusinessName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(555) 123-4567", "(555) 123-4567"},
		{"+1-555-123-4567", "+1-555-123-4567"},
		{"123", ""},
		{"123-456", ""},
		{"", ""},
		{"+123456789012345678", ""}, // too long
	}
	for _, tt := range tests {
		if got := ValidatePhone(tt.in); got != tt.want {
			t.Errorf("ValidatePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	// Idempotence over already-validated values.
	for _, in := range []string{"(555) 123-4567", "123", ""} {
		once := ValidatePhone(in)
		if twice := ValidatePhone(once); twice != once {
			t.Errorf("ValidatePhone not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestInfoScore(t *testing.T) {
	l := Lead{PhoneNumber: "x", Website: "y"}
	if got := l.InfoScore(); got != 2 {
		t.Errorf("InfoScore = %d, want 2", got)
	}
	if got := (Lead{}).InfoScore(); got != 0 {
		t.Errorf("InfoScore = %d, want 0", got)
	}
}

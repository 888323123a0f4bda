package normalize

import (
	"slices"
	"testing"
	"time"
)

func TestIsValidCPF(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"529.982.247-25", true},
		{"52998224725", true},
		{"111.444.777-35", true},
		{"52998224724", false},
		{"111.111.111-11", false},
		{"5299822472", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidCPF(tt.in); got != tt.want {
			t.Errorf("IsValidCPF(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsValidCNPJ(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"11.222.333/0001-81", true},
		{"45723174000110", true},
		{"11.222.333/0001-82", false},
		{"00000000000000", false},
		{"1122233300018", false},
	}
	for _, tt := range tests {
		if got := IsValidCNPJ(tt.in); got != tt.want {
			t.Errorf("IsValidCNPJ(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if !IsValidDocument("529.982.247-25") || !IsValidDocument("11.222.333/0001-81") || IsValidDocument("123") {
		t.Error("IsValidDocument dispatch is wrong")
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"(11) 98765-4321", true},
		{"1133334444", true},
		{"11 8765-4321", false}, // landline cannot start with 8
		{"(01) 98765-4321", false},
		{"1198765432", false},
		{"119876543210", false},
	}
	for _, tt := range tests {
		if got := IsValidPhone(tt.in); got != tt.want {
			t.Errorf("IsValidPhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizersAreIdempotent(t *testing.T) {
	inputs := []string{"  Foo@Example.COM ", "529.982.247-25", " sp ", "<b>Maria</b> Silva ", "01310-100", ""}
	funcs := map[string]func(string) string{
		"Digits":       Digits,
		"Email":        Email,
		"State":        State,
		"SanitizeName": SanitizeName,
	}
	for name, fn := range funcs {
		for _, in := range inputs {
			once := fn(in)
			if twice := fn(once); twice != once {
				t.Errorf("%s(%q): %q then %q", name, in, once, twice)
			}
		}
	}
}

func TestContactHelpers(t *testing.T) {
	if got := Email("  Foo@Example.COM "); got != "foo@example.com" {
		t.Errorf("Email = %q", got)
	}
	if !IsValidEmail("a@b.co") || IsValidEmail("a@b") || IsValidEmail("a b@c.d") {
		t.Error("IsValidEmail mismatch")
	}
	if !IsValidZipCode("01310-100") || IsValidZipCode("0131010") {
		t.Error("IsValidZipCode mismatch")
	}
	if State(" sp ") != "SP" || !IsValidState("rj") || IsValidState("RJX") {
		t.Error("state helpers mismatch")
	}
	if SanitizeName(" <b>Ana</b> ") != "bAna/b" {
		t.Errorf("SanitizeName = %q", SanitizeName(" <b>Ana</b> "))
	}
	if HasFullName("Ana") || !HasFullName(" Ana  Souza ") {
		t.Error("HasFullName mismatch")
	}
	blank := "   "
	if Text(&blank) != nil {
		t.Error("Text should map blanks to nil")
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	if p := CheckPasswordStrength("Segura@2024"); len(p) != 0 {
		t.Errorf("strong password flagged: %v", p)
	}
	p := CheckPasswordStrength("abc")
	for _, want := range []string{"mínimo 8 caracteres", "uma letra maiúscula", "um número", "um caractere especial (!@#$%...)"} {
		if !slices.Contains(p, want) {
			t.Errorf("missing %q in %v", want, p)
		}
	}
	if p := CheckPasswordStrength("MyPassword123!"); !slices.Contains(p, "senha muito comum") {
		t.Errorf("common password not flagged: %v", p)
	}
}

func TestSelectOptions(t *testing.T) {
	if _, ok := SelectOptions([]string{"Sim", " sim "}); ok {
		t.Error("case-insensitive duplicate accepted")
	}
	if _, ok := SelectOptions([]string{"Sim", " "}); ok {
		t.Error("single option accepted")
	}
	got, ok := SelectOptions([]string{" Sim", "Não "})
	if !ok || !slices.Equal(got, []string{"Sim", "Não"}) {
		t.Errorf("SelectOptions = %v, %v", got, ok)
	}
}

func TestPaymentDueDate(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		day   int
		want  int
	}{
		{2024, time.February, 31, 29},
		{2023, time.February, 30, 28},
		{2024, time.April, 31, 30},
		{2024, time.March, 15, 15},
	}
	for _, tt := range tests {
		if got := PaymentDueDate(tt.year, tt.month, tt.day, time.UTC).Day(); got != tt.want {
			t.Errorf("PaymentDueDate(%d, %s, %d) day = %d, want %d", tt.year, tt.month, tt.day, got, tt.want)
		}
	}
}

func TestPaymentSchedule(t *testing.T) {
	start := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)

	got := PaymentSchedule(start, end, 31)
	want := []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d: %v", len(got), len(want), got)
	}
	for i, d := range got {
		if d.Format("2006-01-02") != want[i] {
			t.Errorf("date %d = %s, want %s", i, d.Format("2006-01-02"), want[i])
		}
	}

	// start already past the due day
	got = PaymentSchedule(start, end, 5)
	if len(got) != 4 || got[0].Format("2006-01-02") != "2024-02-05" {
		t.Errorf("schedule from day 5 = %v", got)
	}
}

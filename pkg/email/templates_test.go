package email

import (
	"strings"
	"testing"
)

func TestRenderVerification(t *testing.T) {
	html, err := render(verificationTmpl, codeData{Name: "Ana", Code: "123456"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Olá Ana", "123456", "Confirme seu email", `lang="pt-BR"`} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestRenderEscapesInput(t *testing.T) {
	html, err := render(invitationTmpl, Invitation{Name: "<script>x</script>", CompanyName: "Imob & Cia", Role: "Corretor", SetupURL: "https://app/login"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("name was not escaped")
	}
	if !strings.Contains(html, "Imob &amp; Cia") {
		t.Error("company name missing or unescaped")
	}
}
